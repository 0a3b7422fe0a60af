package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func mustNote(t *testing.T, user, title string, createdAt time.Time) *domain.Note {
	t.Helper()
	n, err := domain.NewNote(user, domain.NoteInput{Title: title}, createdAt)
	if err != nil {
		t.Fatalf("NewNote() error = %v", err)
	}
	return n
}

func TestNotesCRUD(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	older := mustNote(t, "alice", "older", base)
	newer := mustNote(t, "alice", "newer", base.Add(time.Minute))
	foreign := mustNote(t, "bob", "bob's", base)

	for _, n := range []*domain.Note{older, newer, foreign} {
		if err := store.CreateNote(ctx, n); err != nil {
			t.Fatalf("CreateNote() error = %v", err)
		}
	}

	notes, err := store.ListNotes(ctx, "alice")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("ListNotes() returned %d notes, want 2", len(notes))
	}
	if notes[0].ID != newer.ID || notes[1].ID != older.ID {
		t.Errorf("ListNotes() order = [%s %s], want newest first", notes[0].Title, notes[1].Title)
	}

	if _, err := store.GetNote(ctx, "alice", foreign.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetNote() on foreign note error = %v, want ErrNotFound", err)
	}

	updated, err := store.UpdateNote(ctx, "alice", older.ID, func(n *domain.Note) error {
		n.IsFavorite = !n.IsFavorite
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	if !updated.IsFavorite {
		t.Error("UpdateNote() did not persist the change")
	}
	reloaded, err := store.GetNote(ctx, "alice", older.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if !reloaded.IsFavorite {
		t.Error("GetNote() after update: IsFavorite = false, want true")
	}

	if err := store.DeleteNote(ctx, "bob", older.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteNote() by non-owner error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteNote(ctx, "alice", older.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if _, err := store.GetNote(ctx, "alice", older.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetNote() after delete error = %v, want ErrNotFound", err)
	}
	notes, _ = store.ListNotes(ctx, "alice")
	if len(notes) != 1 {
		t.Errorf("ListNotes() after delete returned %d notes, want 1", len(notes))
	}
}

func TestUpdateNotePropagatesValidationError(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	n := mustNote(t, "alice", "keep", time.Now())
	if err := store.CreateNote(ctx, n); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	blank := ""
	_, err := store.UpdateNote(ctx, "alice", n.ID, func(n *domain.Note) error {
		return domain.NotePatch{Title: &blank}.Apply(n, time.Now())
	})
	if !domain.IsValidation(err) {
		t.Fatalf("UpdateNote() error = %v, want validation error", err)
	}

	reloaded, _ := store.GetNote(ctx, "alice", n.ID)
	if reloaded.Title != "keep" {
		t.Errorf("Title = %q, failed update should not be persisted", reloaded.Title)
	}
}

func TestListNotesEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	notes, err := store.ListNotes(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf("ListNotes() = %v, want empty slice", notes)
	}
}

func TestUntitledBacklog(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	now := time.Now()

	untitled, _ := domain.NewBookmark("alice", domain.BookmarkInput{URL: "https://a.example", Title: domain.UntitledTitle}, now)
	titled, _ := domain.NewBookmark("alice", domain.BookmarkInput{URL: "https://b.example", Title: "B"}, now)

	for _, b := range []*domain.Bookmark{untitled, titled} {
		if err := store.CreateBookmark(ctx, b); err != nil {
			t.Fatalf("CreateBookmark() error = %v", err)
		}
	}

	members, _ := mr.Members(UntitledBookmarksKey())
	if len(members) != 1 || members[0] != untitled.ID {
		t.Fatalf("untitled backlog = %v, want [%s]", members, untitled.ID)
	}

	backlog, err := store.ListUntitledBookmarks(ctx, 10)
	if err != nil {
		t.Fatalf("ListUntitledBookmarks() error = %v", err)
	}
	if len(backlog) != 1 || backlog[0].ID != untitled.ID {
		t.Errorf("ListUntitledBookmarks() = %v, want the untitled bookmark", backlog)
	}

	// Giving it a title removes it from the backlog.
	if _, err := store.UpdateBookmark(ctx, "", untitled.ID, func(b *domain.Bookmark) error {
		b.Title = "Now titled"
		return nil
	}); err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	if mr.Exists(UntitledBookmarksKey()) {
		members, _ := mr.Members(UntitledBookmarksKey())
		if len(members) != 0 {
			t.Errorf("untitled backlog = %v, want empty", members)
		}
	}
}

func TestListUntitledBookmarksDropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if _, err := mr.SAdd(UntitledBookmarksKey(), "ghost"); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}

	backlog, err := store.ListUntitledBookmarks(ctx, 10)
	if err != nil {
		t.Fatalf("ListUntitledBookmarks() error = %v", err)
	}
	if len(backlog) != 0 {
		t.Errorf("ListUntitledBookmarks() = %v, want empty", backlog)
	}
	if ok, _ := mr.SIsMember(UntitledBookmarksKey(), "ghost"); ok {
		t.Error("stale backlog entry should have been removed")
	}
}

func TestDeleteBookmark(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	b, _ := domain.NewBookmark("alice", domain.BookmarkInput{URL: "https://a.example"}, time.Now())
	if err := store.CreateBookmark(ctx, b); err != nil {
		t.Fatalf("CreateBookmark() error = %v", err)
	}
	if err := store.DeleteBookmark(ctx, "alice", b.ID); err != nil {
		t.Fatalf("DeleteBookmark() error = %v", err)
	}
	if err := store.DeleteBookmark(ctx, "alice", b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteBookmark() error = %v, want ErrNotFound", err)
	}
	list, _ := store.ListBookmarks(ctx, "alice")
	if len(list) != 0 {
		t.Errorf("ListBookmarks() = %v, want empty", list)
	}
}
