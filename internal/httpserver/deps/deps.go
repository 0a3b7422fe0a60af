package deps

import (
	"time"

	"github.com/MrSnakeDoc/keepmark/internal/logger"
	"github.com/MrSnakeDoc/keepmark/internal/metadata"
	"github.com/MrSnakeDoc/keepmark/internal/sources/users"
	redisstore "github.com/MrSnakeDoc/keepmark/internal/store/redis"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time    // for testing, defaults to time.Now
	AllowedCIDRS   []string            // IPs allowed to access the readyz endpoint
	TrustProxy     bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins    []string            // Origins allowed by CORS ("*" = any)
	RateBurst      int                 // Write requests allowed in a burst, per client
	RatePerMin     int                 // Sustained write requests per minute, per client
	Store          *redisstore.Store   // Notes and bookmarks
	Extractor      *metadata.Extractor // Page metadata scraper
	Users          *users.Directory    // API token directory
	RefreshTrigger chan struct{}       // Channel to trigger a manual metadata refresh
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
