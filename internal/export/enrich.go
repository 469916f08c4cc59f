package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/matillion/mattermost-export/internal/mattermost"
	"go.uber.org/zap"
)

// enrich resolves one raw post into its full record: author identity,
// attachment descriptors, and reaction rollups. An unresolvable author
// aborts the run; a deleted attachment is dropped without failing.
func (a *Aggregator) enrich(ctx context.Context, rp mattermost.RawPost) (*Post, error) {
	author, err := a.api.User(ctx, rp.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve author of post %s: %w", rp.ID, err)
	}

	attachments, err := a.resolveAttachments(ctx, rp.FileIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attachments of post %s: %w", rp.ID, err)
	}

	rollups, err := a.resolveReactions(ctx, rp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reactions of post %s: %w", rp.ID, err)
	}

	return &Post{
		ID:          rp.ID,
		Message:     rp.Message,
		UserID:      rp.UserID,
		Username:    author.Username,
		CreateAt:    rp.CreateAt,
		EditAt:      rp.EditAt,
		DeleteAt:    rp.DeleteAt,
		RootID:      rp.RootID,
		ParentID:    rp.ParentID,
		Attachments: attachments,
		Reactions:   rollups,
	}, nil
}

func (a *Aggregator) resolveAttachments(ctx context.Context, fileIDs []string) ([]Attachment, error) {
	var attachments []Attachment
	for _, fileID := range fileIDs {
		fi, err := a.api.FileInfo(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if fi == nil {
			// Already deleted on the server; drop it, no placeholder.
			a.logger.Debug("Dropping deleted attachment", zap.String("file_id", fileID))
			continue
		}

		uploadedAt := UploadedUnavailable
		if fi.CreateAt > 0 {
			uploadedAt = FormatMillis(fi.CreateAt)
		}

		attachments = append(attachments, Attachment{
			ID:          fi.ID,
			Name:        fi.Name,
			Size:        fi.Size,
			MimeType:    fi.MimeType,
			UploadedAt:  uploadedAt,
			UploaderID:  fi.UserID,
			DownloadURL: fi.DownloadURL,
		})
	}
	return attachments, nil
}

// resolveReactions folds the flat reaction list into one rollup per emoji,
// preserving first-seen emoji order and first-seen user order within each.
func (a *Aggregator) resolveReactions(ctx context.Context, postID string) ([]ReactionRollup, error) {
	raw, err := a.api.Reactions(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var rollups []ReactionRollup
	index := make(map[string]int)

	for _, r := range raw {
		name, err := a.reactionUsername(ctx, r.UserID)
		if err != nil {
			return nil, err
		}

		i, ok := index[r.EmojiName]
		if !ok {
			i = len(rollups)
			index[r.EmojiName] = i
			rollups = append(rollups, ReactionRollup{EmojiName: r.EmojiName})
		}
		rollups[i].Users = append(rollups[i].Users, name)
		rollups[i].Count = len(rollups[i].Users)
	}

	return rollups, nil
}

// reactionUsername resolves a reacting user's name, falling back to the raw
// id when the account no longer exists. Unlike post authors, a vanished
// reactor does not abort the run.
func (a *Aggregator) reactionUsername(ctx context.Context, userID string) (string, error) {
	u, err := a.api.User(ctx, userID)
	if errors.Is(err, mattermost.ErrNotFound) {
		return userID, nil
	}
	if err != nil {
		return "", err
	}
	return u.Username, nil
}
