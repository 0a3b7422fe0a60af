package domain

import (
	"regexp"
	"strings"
	"time"
)

// UntitledTitle is the placeholder used when no page title could be found.
const UntitledTitle = "Untitled"

var bookmarkURLPattern = regexp.MustCompile(`^(https?://)[^\s$.?#].[^\s]*$`)

// Bookmark is a saved web page owned by a single user.
type Bookmark struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is a ULID assigned on creation.
	ID string `json:"id"`

	// URL is the address exactly as submitted.
	URL string `json:"url"`

	// User is the owner. A bookmark belongs to exactly one user.
	User string `json:"user"`

	// ─────────────────────────────
	// Description
	// (title/description may come from page metadata)
	// ─────────────────────────────

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Favicon     string   `json:"favicon,omitempty"`
	Tags        []string `json:"tags"`
	IsFavorite  bool     `json:"isFavorite"`

	// ─────────────────────────────
	// Timestamps
	// ─────────────────────────────

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// MetadataCheckedAt is the last time page metadata was fetched for
	// this bookmark. Nil when the caller supplied the title.
	MetadataCheckedAt *time.Time `json:"metadataCheckedAt,omitempty"`
}

// BookmarkInput is the payload accepted when creating a bookmark.
type BookmarkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsFavorite  bool     `json:"isFavorite"`
}

// BookmarkPatch carries the fields of a partial update.
type BookmarkPatch struct {
	URL         *string   `json:"url"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	IsFavorite  *bool     `json:"isFavorite"`
}

// ValidateURL checks that raw is an http(s) URL with a plausible host.
func ValidateURL(raw string) error {
	if raw == "" || !bookmarkURLPattern.MatchString(raw) {
		return &ValidationError{Reason: "Invalid URL"}
	}
	return nil
}

// NeedsMetadata reports whether the page should be scraped before saving.
func (in BookmarkInput) NeedsMetadata() bool {
	return strings.TrimSpace(in.Title) == ""
}

// NewBookmark validates in and builds a bookmark owned by user.
func NewBookmark(user string, in BookmarkInput, now time.Time) (*Bookmark, error) {
	if err := ValidateURL(in.URL); err != nil {
		return nil, err
	}
	return &Bookmark{
		ID:          NewID(),
		URL:         in.URL,
		User:        user,
		Title:       in.Title,
		Description: in.Description,
		Tags:        NormalizeTags(in.Tags),
		IsFavorite:  in.IsFavorite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply merges p into b.
func (p BookmarkPatch) Apply(b *Bookmark, now time.Time) error {
	if p.URL != nil {
		if err := ValidateURL(*p.URL); err != nil {
			return err
		}
		b.URL = *p.URL
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Tags != nil {
		b.Tags = NormalizeTags(*p.Tags)
	}
	if p.IsFavorite != nil {
		b.IsFavorite = *p.IsFavorite
	}
	b.UpdatedAt = now
	return nil
}

// IsUntitled reports whether the bookmark still carries the placeholder title.
func (b *Bookmark) IsUntitled() bool {
	t := strings.TrimSpace(b.Title)
	return t == "" || t == UntitledTitle
}

// EnrichFrom fills the fields still missing on b with scraped page
// metadata and records the check time. Values already set are kept.
func (b *Bookmark) EnrichFrom(title, description, favicon string, at time.Time) {
	changed := false
	if b.IsUntitled() && title != "" && b.Title != title {
		b.Title = title
		changed = true
	}
	if strings.TrimSpace(b.Description) == "" && description != "" {
		b.Description = description
		changed = true
	}
	if b.Favicon == "" && favicon != "" {
		b.Favicon = favicon
		changed = true
	}
	if changed {
		b.UpdatedAt = at
	}
	b.MetadataCheckedAt = &at
}
