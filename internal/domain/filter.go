package domain

import (
	"regexp"
	"strings"
	"time"
)

// ListParams holds the raw query-string values of a list request.
type ListParams struct {
	Query     string // q
	Tags      string // comma-separated
	Favorites string // "true" enables the filter
	Since     string // today | week | month
}

// ListFilter is a parsed, ready-to-apply list filter.
type ListFilter struct {
	Pattern       *regexp.Regexp // nil matches everything
	Tags          []string       // any-of; empty matches everything
	FavoritesOnly bool
	Since         time.Time // zero matches everything
}

// ParseListFilter turns raw parameters into a ListFilter. The search term is
// compiled as a case-insensitive regular expression; a term that does not
// compile is matched literally.
func ParseListFilter(p ListParams, now time.Time) (ListFilter, error) {
	var f ListFilter

	if q := p.Query; q != "" {
		re, err := regexp.Compile("(?i)" + q)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
		}
		f.Pattern = re
	}

	f.Tags = SplitTags(p.Tags)
	f.FavoritesOnly = p.Favorites == "true"

	since, err := parseSince(p.Since, now)
	if err != nil {
		return ListFilter{}, err
	}
	f.Since = since

	return f, nil
}

func parseSince(raw string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return time.Time{}, nil
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, &ValidationError{Field: "since", Reason: "must be one of today, week, month"}
	}
}

// MatchNote reports whether n passes the filter. The search term is
// applied to the title and content.
func (f ListFilter) MatchNote(n *Note) bool {
	if !f.matchCommon(n.Tags, n.IsFavorite, n.CreatedAt) {
		return false
	}
	return f.matchText(n.Title, n.Content)
}

// MatchBookmark reports whether b passes the filter. The search term is
// applied to the title, description and URL.
func (f ListFilter) MatchBookmark(b *Bookmark) bool {
	if !f.matchCommon(b.Tags, b.IsFavorite, b.CreatedAt) {
		return false
	}
	return f.matchText(b.Title, b.Description, b.URL)
}

func (f ListFilter) matchCommon(tags []string, favorite bool, createdAt time.Time) bool {
	if f.FavoritesOnly && !favorite {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(tags, f.Tags) {
		return false
	}
	if !f.Since.IsZero() && createdAt.Before(f.Since) {
		return false
	}
	return true
}

func (f ListFilter) matchText(fields ...string) bool {
	if f.Pattern == nil {
		return true
	}
	for _, field := range fields {
		if f.Pattern.MatchString(field) {
			return true
		}
	}
	return false
}
