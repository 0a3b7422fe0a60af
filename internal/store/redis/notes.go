package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
)

func noteOwner(n *domain.Note) string { return n.User }

// CreateNote stores a new note and indexes it under its owner
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, NoteKey(note.ID), data, 0)
		pipe.ZAdd(ctx, UserNotesKey(note.User), redis.Z{
			Score:  score(note.CreatedAt.UnixMilli()),
			Member: note.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// GetNote retrieves one of user's notes
func (s *Store) GetNote(ctx context.Context, user, id string) (*domain.Note, error) {
	return getDoc(ctx, s.client, NoteKey(id), user, noteOwner)
}

// ListNotes returns all of user's notes, newest first
func (s *Store) ListNotes(ctx context.Context, user string) ([]*domain.Note, error) {
	return listDocs[domain.Note](ctx, s.client, UserNotesKey(user), NoteKey)
}

// UpdateNote applies fn to one of user's notes and persists the result
func (s *Store) UpdateNote(ctx context.Context, user, id string, fn func(*domain.Note) error) (*domain.Note, error) {
	return updateDoc(ctx, s.client, NoteKey(id), user, noteOwner, fn, nil)
}

// DeleteNote removes one of user's notes
func (s *Store) DeleteNote(ctx context.Context, user, id string) error {
	if _, err := s.GetNote(ctx, user, id); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, NoteKey(id))
		pipe.ZRem(ctx, UserNotesKey(user), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
