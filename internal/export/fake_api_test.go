package export

import (
	"context"
	"fmt"

	"github.com/matillion/mattermost-export/internal/mattermost"
)

// fakeAPI implements API from in-memory fixtures.
type fakeAPI struct {
	me        mattermost.User
	users     map[string]mattermost.User
	pages     []mattermost.PostBatch
	threads   map[string][]mattermost.RawPost
	files     map[string]*mattermost.RawFileInfo
	fileErrs  map[string]error
	reactions map[string][]mattermost.RawReaction

	userCalls   map[string]int
	pageCalls   int
	threadCalls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:     make(map[string]mattermost.User),
		threads:   make(map[string][]mattermost.RawPost),
		files:     make(map[string]*mattermost.RawFileInfo),
		fileErrs:  make(map[string]error),
		reactions: make(map[string][]mattermost.RawReaction),
		userCalls: make(map[string]int),
	}
}

func (f *fakeAPI) Me(ctx context.Context) (mattermost.User, error) {
	if f.me.ID == "" {
		return mattermost.User{}, fmt.Errorf("me: %w", mattermost.ErrNotFound)
	}
	return f.me, nil
}

func (f *fakeAPI) User(ctx context.Context, id string) (mattermost.User, error) {
	f.userCalls[id]++
	u, ok := f.users[id]
	if !ok {
		return mattermost.User{}, fmt.Errorf("user %s: %w", id, mattermost.ErrNotFound)
	}
	return u, nil
}

func (f *fakeAPI) PostsPage(ctx context.Context, channelID string, page, perPage int, includeDeleted bool) (mattermost.PostBatch, error) {
	f.pageCalls++
	if page >= len(f.pages) {
		return mattermost.PostBatch{}, nil
	}
	return f.pages[page], nil
}

func (f *fakeAPI) Thread(ctx context.Context, rootID string) ([]mattermost.RawPost, error) {
	f.threadCalls = append(f.threadCalls, rootID)
	thread, ok := f.threads[rootID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", rootID, mattermost.ErrNotFound)
	}
	return thread, nil
}

func (f *fakeAPI) FileInfo(ctx context.Context, fileID string) (*mattermost.RawFileInfo, error) {
	if err, ok := f.fileErrs[fileID]; ok {
		return nil, err
	}
	return f.files[fileID], nil
}

func (f *fakeAPI) Reactions(ctx context.Context, postID string) ([]mattermost.RawReaction, error) {
	return f.reactions[postID], nil
}

func boolPtr(b bool) *bool { return &b }
