package video

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDeduper struct {
	seen map[string]bool
}

func (d *stubDeduper) FirstView(_ context.Context, videoID, viewerID string) bool {
	key := videoID + "/" + viewerID
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func publishOne(t *testing.T, svc *Service, owner, title string) *Video {
	t.Helper()
	v, err := svc.Publish(context.Background(), owner, PublishParams{
		Title:       title,
		Description: "desc",
		VideoFile:   "https://cdn.example.com/v.mp4",
		Thumbnail:   "https://cdn.example.com/t.jpg",
		Duration:    120,
		Published:   true,
	})
	require.NoError(t, err)
	return v
}

func TestPublishValidation(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()

	base := PublishParams{
		Title: "t", Description: "d",
		VideoFile: "f", Thumbnail: "th", Duration: 10,
	}

	for name, mutate := range map[string]func(*PublishParams){
		"empty title":       func(p *PublishParams) { p.Title = "  " },
		"long title":        func(p *PublishParams) { p.Title = strings.Repeat("x", 151) },
		"empty description": func(p *PublishParams) { p.Description = "" },
		"long description":  func(p *PublishParams) { p.Description = strings.Repeat("x", 1001) },
		"missing file":      func(p *PublishParams) { p.VideoFile = "" },
		"missing thumbnail": func(p *PublishParams) { p.Thumbnail = "" },
		"zero duration":     func(p *PublishParams) { p.Duration = 0 },
	} {
		p := base
		mutate(&p)
		_, err := svc.Publish(ctx, "owner", p)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}

	v, err := svc.Publish(ctx, "owner", base)
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "owner", v.OwnerID)
}

func TestEditOwnerOnly(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	v := publishOne(t, svc, "owner", "original")

	_, err := svc.Edit(ctx, "intruder", v.ID, PublishParams{
		Title: "hijacked", Description: "d",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Get(ctx, v.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)

	updated, err := svc.Edit(ctx, "owner", v.ID, PublishParams{
		Title: "renamed", Description: "new desc", Published: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.False(t, updated.Published)
	// Empty thumbnail in the edit keeps the existing asset.
	assert.Equal(t, v.Thumbnail, updated.Thumbnail)
}

func TestFeedListsPublishedNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	svc := NewService(NewInMemory(), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	publishOne(t, svc, "a", "first")
	publishOne(t, svc, "a", "second")
	draft, err := svc.Publish(ctx, "a", PublishParams{
		Title: "draft", Description: "d", VideoFile: "f", Thumbnail: "t", Duration: 1,
	})
	require.NoError(t, err)

	page, err := svc.Feed(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "second", page.Items[0].Title)
	assert.Equal(t, "first", page.Items[1].Title)
	for _, item := range page.Items {
		assert.NotEqual(t, draft.ID, item.ID)
	}
}

func TestGetCountsViewsOncePerViewer(t *testing.T) {
	svc := NewService(NewInMemory(), WithViewDeduper(&stubDeduper{seen: map[string]bool{}}))
	ctx := context.Background()
	v := publishOne(t, svc, "owner", "watched")

	got, err := svc.Get(ctx, v.ID, "viewer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = svc.Get(ctx, v.ID, "viewer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = svc.Get(ctx, v.ID, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	// Anonymous fetches never count.
	got, err = svc.Get(ctx, v.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
}

func TestWatchHistoryMovesRewatchToFront(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	v1 := publishOne(t, svc, "owner", "one")
	v2 := publishOne(t, svc, "owner", "two")

	_, err := svc.Get(ctx, v1.ID, "viewer")
	require.NoError(t, err)
	_, err = svc.Get(ctx, v2.ID, "viewer")
	require.NoError(t, err)
	_, err = svc.Get(ctx, v1.ID, "viewer")
	require.NoError(t, err)

	history, err := svc.History(ctx, "viewer", 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, v1.ID, history[0].ID)
	assert.Equal(t, v2.ID, history[1].ID)
}

func TestMineFilters(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	publishOne(t, svc, "owner", "Go talk")
	publishOne(t, svc, "owner", "Rust talk")
	_, err := svc.Publish(ctx, "owner", PublishParams{
		Title: "Go draft", Description: "d", VideoFile: "f", Thumbnail: "t", Duration: 1,
	})
	require.NoError(t, err)
	publishOne(t, svc, "someone-else", "Go talk")

	page, err := svc.Mine(ctx, "owner", OwnerFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	published := true
	page, err = svc.Mine(ctx, "owner", OwnerFilter{Published: &published, Title: "go"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go talk", page.Items[0].Title)
}

func TestGetManyPreservesOrderAndSkipsMissing(t *testing.T) {
	svc := NewService(NewInMemory())
	ctx := context.Background()
	v1 := publishOne(t, svc, "owner", "one")
	v2 := publishOne(t, svc, "owner", "two")

	got, err := svc.GetMany(ctx, []string{v2.ID, "gone", v1.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, v2.ID, got[0].ID)
	assert.Equal(t, v1.ID, got[1].ID)
}
