package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
)

func bookmarkOwner(b *domain.Bookmark) string { return b.User }

// trackUntitled keeps the metadata refresh backlog in sync with b.
func trackUntitled(ctx context.Context, pipe redis.Pipeliner, b *domain.Bookmark) {
	if b.IsUntitled() {
		pipe.SAdd(ctx, UntitledBookmarksKey(), b.ID)
		return
	}
	pipe.SRem(ctx, UntitledBookmarksKey(), b.ID)
}

// CreateBookmark stores a new bookmark and indexes it under its owner
func (s *Store) CreateBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	data, err := json.Marshal(bookmark)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
		pipe.ZAdd(ctx, UserBookmarksKey(bookmark.User), redis.Z{
			Score:  score(bookmark.CreatedAt.UnixMilli()),
			Member: bookmark.ID,
		})
		trackUntitled(ctx, pipe, bookmark)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	return nil
}

// GetBookmark retrieves one of user's bookmarks
func (s *Store) GetBookmark(ctx context.Context, user, id string) (*domain.Bookmark, error) {
	return getDoc(ctx, s.client, BookmarkKey(id), user, bookmarkOwner)
}

// ListBookmarks returns all of user's bookmarks, newest first
func (s *Store) ListBookmarks(ctx context.Context, user string) ([]*domain.Bookmark, error) {
	return listDocs[domain.Bookmark](ctx, s.client, UserBookmarksKey(user), BookmarkKey)
}

// UpdateBookmark applies fn to one of user's bookmarks and persists the result.
// An empty user skips the ownership check (used by background jobs).
func (s *Store) UpdateBookmark(ctx context.Context, user, id string, fn func(*domain.Bookmark) error) (*domain.Bookmark, error) {
	return updateDoc(ctx, s.client, BookmarkKey(id), user, bookmarkOwner, fn,
		func(pipe redis.Pipeliner, b *domain.Bookmark) { trackUntitled(ctx, pipe, b) })
}

// DeleteBookmark removes one of user's bookmarks
func (s *Store) DeleteBookmark(ctx context.Context, user, id string) error {
	if _, err := s.GetBookmark(ctx, user, id); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, BookmarkKey(id))
		pipe.ZRem(ctx, UserBookmarksKey(user), id)
		pipe.SRem(ctx, UntitledBookmarksKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// ListUntitledBookmarks returns up to limit bookmarks from the refresh
// backlog, regardless of owner. Backlog entries whose document is gone are
// dropped from the backlog.
func (s *Store) ListUntitledBookmarks(ctx context.Context, limit int) ([]*domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, UntitledBookmarksKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read untitled backlog: %w", err)
	}

	size := len(ids)
	if limit > 0 && limit < size {
		size = limit
	}

	bookmarks := make([]*domain.Bookmark, 0, size)
	for _, id := range ids {
		if limit > 0 && len(bookmarks) >= limit {
			break
		}
		b, err := getDoc(ctx, s.client, BookmarkKey(id), "", bookmarkOwner)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				_ = s.client.SRem(ctx, UntitledBookmarksKey(), id).Err()
				continue
			}
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}
