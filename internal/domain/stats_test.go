package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	old := now.Add(-30 * 24 * time.Hour)

	notes := []*Note{
		{ID: "n1", Title: "recent note", Tags: []string{"go", "ideas"}, IsFavorite: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "n2", Title: "old note", Tags: []string{"go"}, CreatedAt: old},
	}
	bookmarks := []*Bookmark{
		{ID: "b1", Title: "recent bookmark", Tags: []string{"go", "web"}, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b2", Title: "old bookmark", Tags: []string{"web"}, IsFavorite: true, CreatedAt: old},
	}

	s := ComputeStats(notes, bookmarks, now)

	if s.TotalItems != 4 || s.TotalNotes != 2 || s.TotalBookmarks != 2 {
		t.Errorf("totals = %d/%d/%d, want 4/2/2", s.TotalItems, s.TotalNotes, s.TotalBookmarks)
	}
	if s.Favorites != 2 || s.FavoritePercentage != 50 {
		t.Errorf("favorites = %d (%d%%), want 2 (50%%)", s.Favorites, s.FavoritePercentage)
	}

	wantTags := []TagCount{{Tag: "go", Count: 3}, {Tag: "web", Count: 2}, {Tag: "ideas", Count: 1}}
	if diff := cmp.Diff(wantTags, s.MostUsedTags); diff != "" {
		t.Errorf("MostUsedTags mismatch (-want +got):\n%s", diff)
	}

	if s.WeeklyActivity != (WeeklyActivity{Notes: 1, Bookmarks: 1}) {
		t.Errorf("WeeklyActivity = %+v, want 1/1", s.WeeklyActivity)
	}

	if len(s.RecentActivity) != 2 || s.RecentActivity[0].ID != "n1" || s.RecentActivity[1].ID != "b1" {
		t.Errorf("RecentActivity = %+v, want [n1 b1]", s.RecentActivity)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	s := ComputeStats(nil, nil, time.Now())
	if s.TotalItems != 0 || s.FavoritePercentage != 0 {
		t.Errorf("empty stats = %+v", s)
	}
	if s.MostUsedTags == nil || s.RecentActivity == nil {
		t.Error("empty stats should use empty slices, not nil")
	}
}
