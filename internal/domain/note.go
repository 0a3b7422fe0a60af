package domain

import (
	"strings"
	"time"
)

// Note is a free-form text record owned by a single user.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"isFavorite"`
	User       string    `json:"user"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NoteInput is the payload accepted when creating a note.
type NoteInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"isFavorite"`
}

// NotePatch carries the fields of a partial update. Nil fields are left
// untouched.
type NotePatch struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	IsFavorite *bool     `json:"isFavorite"`
}

// NewNote validates in and builds a note owned by user.
func NewNote(user string, in NoteInput, now time.Time) (*Note, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}
	return &Note{
		ID:         NewID(),
		Title:      in.Title,
		Content:    in.Content,
		Tags:       NormalizeTags(in.Tags),
		IsFavorite: in.IsFavorite,
		User:       user,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Apply merges p into n. Ownership and creation time never change.
func (p NotePatch) Apply(n *Note, now time.Time) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return &ValidationError{Field: "title", Reason: "cannot be empty"}
		}
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = NormalizeTags(*p.Tags)
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	n.UpdatedAt = now
	return nil
}
