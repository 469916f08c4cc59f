package export

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/matillion/mattermost-export/internal/mattermost"
	"go.uber.org/zap"
)

const defaultPerPage = 100

// Aggregator pages through a channel's raw posts, backfills threads whose
// roots fall outside the page sweep, and folds the result into a ThreadTree.
// It exclusively owns the tree's construction; once returned the tree is an
// immutable snapshot.
type Aggregator struct {
	api     API
	logger  *zap.Logger
	perPage int

	stats aggregateStats
}

type aggregateStats struct {
	pages      int
	posts      int
	backfilled int
	threads    int
}

func NewAggregator(api API, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		api:     api,
		logger:  logger,
		perPage: defaultPerPage,
	}
}

// treeEntry is one slot in the tree under construction. root == nil is the
// replies-only state: replies arrived before (or instead of) their root.
type treeEntry struct {
	root    *Post
	replies []*Post
}

// Aggregate builds the normalized thread tree for one channel.
func (a *Aggregator) Aggregate(ctx context.Context, channelID string, includeDeleted bool) (ThreadTree, error) {
	raw, err := a.collect(ctx, channelID, includeDeleted)
	if err != nil {
		return nil, err
	}

	raw, err = a.backfillThreads(ctx, raw)
	if err != nil {
		return nil, err
	}

	// Global time ordering before the fold; ties keep collection order.
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].CreateAt < raw[j].CreateAt
	})

	entries := make(map[string]*treeEntry)
	at := func(id string) *treeEntry {
		e, ok := entries[id]
		if !ok {
			e = &treeEntry{}
			entries[id] = e
		}
		return e
	}

	for _, rp := range raw {
		p, err := a.enrich(ctx, rp)
		if err != nil {
			return nil, err
		}

		if rp.RootID == "" {
			// Thread root; any replies that arrived first are preserved.
			at(rp.ID).root = p
			continue
		}
		e := at(rp.RootID)
		e.replies = append(e.replies, p)
	}

	tree := make(ThreadTree, len(entries))
	for id, e := range entries {
		switch {
		case e.root != nil:
			e.root.Replies = e.replies
			tree[id] = e.root
		default:
			// Root genuinely inaccessible: keep a replies-only stub.
			tree[id] = &Post{ID: id, Replies: e.replies}
		}
		if len(e.replies) > 0 {
			a.stats.threads++
		}
	}

	a.logger.Info("Aggregation complete",
		zap.String("channel_id", channelID),
		zap.Int("pages", a.stats.pages),
		zap.Int("posts", a.stats.posts),
		zap.Int("backfilled", a.stats.backfilled),
		zap.Int("threads", a.stats.threads),
		zap.Int("roots", len(tree)))

	return tree, nil
}

// collect pages through the channel from page 0, accumulating every post
// once. The server's has-more flag wins when present; a short page ends the
// sweep otherwise.
func (a *Aggregator) collect(ctx context.Context, channelID string, includeDeleted bool) ([]mattermost.RawPost, error) {
	var ordered []mattermost.RawPost
	seen := make(map[string]bool)

	for page := 0; ; page++ {
		batch, err := a.api.PostsPage(ctx, channelID, page, a.perPage, includeDeleted)
		if err != nil {
			return nil, fmt.Errorf("failed to page channel %s: %w", channelID, err)
		}
		if len(batch.Posts) == 0 {
			break
		}
		a.stats.pages++

		for _, p := range batch.Posts {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			ordered = append(ordered, p)
			a.stats.posts++
		}

		if batch.HasNext != nil {
			if !*batch.HasNext {
				break
			}
			continue
		}
		if len(batch.Posts) < a.perPage {
			break
		}
	}

	return ordered, nil
}

// backfillThreads fetches the thread of every reply whose root was never
// paged, so no orphaned reply is silently dropped.
func (a *Aggregator) backfillThreads(ctx context.Context, posts []mattermost.RawPost) ([]mattermost.RawPost, error) {
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		seen[p.ID] = true
	}

	var dangling []string
	requested := make(map[string]bool)
	for _, p := range posts {
		if p.RootID == "" || seen[p.RootID] || requested[p.RootID] {
			continue
		}
		requested[p.RootID] = true
		dangling = append(dangling, p.RootID)
	}

	for _, rootID := range dangling {
		thread, err := a.api.Thread(ctx, rootID)
		if errors.Is(err, mattermost.ErrNotFound) {
			// Root inaccessible to this principal; the fold keeps a
			// replies-only stub for it.
			a.logger.Warn("Thread root inaccessible", zap.String("root_id", rootID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to backfill thread %s: %w", rootID, err)
		}

		a.logger.Debug("Backfilled thread",
			zap.String("root_id", rootID),
			zap.Int("posts", len(thread)))

		for _, p := range thread {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			posts = append(posts, p)
			a.stats.backfilled++
		}
	}

	return posts, nil
}
