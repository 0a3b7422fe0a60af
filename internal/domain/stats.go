package domain

import (
	"math"
	"sort"
	"time"
)

const (
	statsTopTags    = 5
	statsRecentSize = 10
	statsWindow     = 7 * 24 * time.Hour
)

// TagCount is a tag and the number of records carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ActivityItem is a compact view of a note or bookmark.
type ActivityItem struct {
	Type      string    `json:"type"` // "note" | "bookmark"
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// WeeklyActivity counts records created during the last seven days.
type WeeklyActivity struct {
	Notes     int `json:"notes"`
	Bookmarks int `json:"bookmarks"`
}

// Stats summarizes one user's collection.
type Stats struct {
	TotalNotes         int            `json:"totalNotes"`
	TotalBookmarks     int            `json:"totalBookmarks"`
	TotalItems         int            `json:"totalItems"`
	Favorites          int            `json:"favorites"`
	FavoritePercentage int            `json:"favoritePercentage"`
	MostUsedTags       []TagCount     `json:"mostUsedTags"`
	WeeklyActivity     WeeklyActivity `json:"weeklyActivity"`
	RecentActivity     []ActivityItem `json:"recentActivity"`
}

// ComputeStats aggregates notes and bookmarks as of now.
func ComputeStats(notes []*Note, bookmarks []*Bookmark, now time.Time) Stats {
	s := Stats{
		TotalNotes:     len(notes),
		TotalBookmarks: len(bookmarks),
		TotalItems:     len(notes) + len(bookmarks),
		MostUsedTags:   []TagCount{},
		RecentActivity: []ActivityItem{},
	}

	cutoff := now.Add(-statsWindow)
	tagCounts := make(map[string]int)
	var recent []ActivityItem

	for _, n := range notes {
		if n.IsFavorite {
			s.Favorites++
		}
		for _, tag := range n.Tags {
			tagCounts[tag]++
		}
		if !n.CreatedAt.Before(cutoff) {
			s.WeeklyActivity.Notes++
			recent = append(recent, ActivityItem{Type: "note", ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt})
		}
	}
	for _, b := range bookmarks {
		if b.IsFavorite {
			s.Favorites++
		}
		for _, tag := range b.Tags {
			tagCounts[tag]++
		}
		if !b.CreatedAt.Before(cutoff) {
			s.WeeklyActivity.Bookmarks++
			recent = append(recent, ActivityItem{Type: "bookmark", ID: b.ID, Title: b.Title, CreatedAt: b.CreatedAt})
		}
	}

	if s.TotalItems > 0 {
		s.FavoritePercentage = int(math.Round(float64(s.Favorites) / float64(s.TotalItems) * 100))
	}

	for tag, count := range tagCounts {
		s.MostUsedTags = append(s.MostUsedTags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(s.MostUsedTags, func(i, j int) bool {
		if s.MostUsedTags[i].Count != s.MostUsedTags[j].Count {
			return s.MostUsedTags[i].Count > s.MostUsedTags[j].Count
		}
		return s.MostUsedTags[i].Tag < s.MostUsedTags[j].Tag
	})
	if len(s.MostUsedTags) > statsTopTags {
		s.MostUsedTags = s.MostUsedTags[:statsTopTags]
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > statsRecentSize {
		recent = recent[:statsRecentSize]
	}
	if recent != nil {
		s.RecentActivity = recent
	}

	return s
}
