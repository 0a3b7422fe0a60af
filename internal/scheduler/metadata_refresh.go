package scheduler

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
	"github.com/MrSnakeDoc/keepmark/internal/metadata"
)

// DefaultRefreshBatch caps the bookmarks re-scraped per run.
const DefaultRefreshBatch = 20

// BookmarkStore is the part of the store the refresher needs.
type BookmarkStore interface {
	ListUntitledBookmarks(ctx context.Context, limit int) ([]*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, user, id string, fn func(*domain.Bookmark) error) (*domain.Bookmark, error)
}

// MetadataSource fetches page metadata. *metadata.Extractor satisfies it.
type MetadataSource interface {
	Extract(ctx context.Context, rawURL string) metadata.Result
}

// RefreshReport summarizes one refresher run.
type RefreshReport struct {
	Due       int // untitled bookmarks whose last check is older than the interval
	Checked   int // bookmarks re-scraped this run
	Refreshed int // bookmarks that got a real title
}

// MetadataRefresher periodically re-scrapes bookmarks still titled
// "Untitled" and fills in what the page now provides.
type MetadataRefresher struct {
	store         BookmarkStore
	source        MetadataSource
	logger        logger.Logger
	interval      time.Duration
	batch         int
	now           func() time.Time
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewMetadataRefresher creates a new metadata refresher
func NewMetadataRefresher(
	store BookmarkStore,
	source MetadataSource,
	log logger.Logger,
	interval time.Duration,
	batch int,
	manualTrigger chan struct{},
) *MetadataRefresher {
	if batch <= 0 {
		batch = DefaultRefreshBatch
	}
	return &MetadataRefresher{
		store:         store,
		source:        source,
		logger:        log,
		interval:      interval,
		batch:         batch,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs a first pass in the background, then one per interval and one
// per manual trigger.
func (mr *MetadataRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(mr.interval)
	go func() {
		defer ticker.Stop()
		mr.runLogged(ctx, "startup")
		for {
			select {
			case <-ticker.C:
				mr.runLogged(ctx, "interval")
			case <-mr.manualTrigger:
				mr.logger.Info("manual metadata refresh triggered")
				mr.runLogged(ctx, "manual")
			case <-mr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the refresher
func (mr *MetadataRefresher) Stop() {
	close(mr.stopCh)
}

func (mr *MetadataRefresher) runLogged(ctx context.Context, reason string) {
	report, err := mr.Refresh(ctx)
	if err != nil {
		mr.logger.Error("metadata refresh failed",
			logger.String("reason", reason),
			logger.Error(err))
		return
	}
	if report.Checked == 0 {
		mr.logger.Debug("no bookmarks due for metadata refresh", logger.String("reason", reason))
		return
	}
	mr.logger.Info("metadata refresh completed",
		logger.String("reason", reason),
		logger.Int("due", report.Due),
		logger.Int("checked", report.Checked),
		logger.Int("refreshed", report.Refreshed))
}

// Refresh re-scrapes up to batch due bookmarks, least recently checked
// first. Every checked bookmark gets its check time recorded, so pages that
// stay unreachable are retried at most once per interval.
func (mr *MetadataRefresher) Refresh(ctx context.Context) (RefreshReport, error) {
	var report RefreshReport

	backlog, err := mr.store.ListUntitledBookmarks(ctx, 0)
	if err != nil {
		return report, err
	}

	due := mr.dueBookmarks(backlog, mr.now())
	report.Due = len(due)
	if len(due) > mr.batch {
		due = due[:mr.batch]
	}

	for _, b := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		meta := mr.source.Extract(ctx, b.URL)
		found := meta.Title != metadata.Untitled
		checkedAt := mr.now()

		var enriched bool
		_, err := mr.store.UpdateBookmark(ctx, "", b.ID, func(cur *domain.Bookmark) error {
			enriched = found && cur.IsUntitled()
			if enriched {
				cur.EnrichFrom(meta.Title, meta.Description, meta.Favicon, checkedAt)
				return nil
			}
			cur.MetadataCheckedAt = &checkedAt
			return nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			mr.logger.Warn("failed to save refreshed bookmark",
				logger.String("bookmark_id", b.ID),
				logger.Error(err))
			continue
		}

		report.Checked++
		if enriched {
			report.Refreshed++
			mr.logger.Debug("bookmark title refreshed",
				logger.String("bookmark_id", b.ID),
				logger.String("title", meta.Title))
		}
	}

	return report, nil
}

// dueBookmarks keeps the untitled bookmarks not checked within the last
// interval, never-checked ones first, then oldest check first.
func (mr *MetadataRefresher) dueBookmarks(backlog []*domain.Bookmark, now time.Time) []*domain.Bookmark {
	due := make([]*domain.Bookmark, 0, len(backlog))
	for _, b := range backlog {
		if !b.IsUntitled() {
			continue
		}
		if b.MetadataCheckedAt != nil && now.Sub(*b.MetadataCheckedAt) < mr.interval {
			continue
		}
		due = append(due, b)
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].MetadataCheckedAt, due[j].MetadataCheckedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	return due
}
