package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"cliphub.org/internal/activity"
	"cliphub.org/internal/auth"
	"cliphub.org/internal/obs"
	"cliphub.org/internal/social"
	"cliphub.org/internal/stream"
	"cliphub.org/internal/video"
)

const maxBodySize = 1 << 20 // 1 MiB of JSON is plenty

// HealthChecker reports backend liveness for the readiness probe.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ReadyProbe checks the backends the service depends on.
type ReadyProbe struct {
	DB    *sql.DB
	Cache HealthChecker
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB != nil {
		if err := rp.DB.PingContext(ctx); err != nil {
			return err
		}
	}
	if rp.Cache != nil {
		return rp.Cache.Health(ctx)
	}
	return nil
}

// Config wires the API's collaborators.
type Config struct {
	Sessions   *auth.Sessions
	Videos     *video.Service
	Social     *social.Service
	Activity   *activity.Recorder
	Stream     *stream.Stream
	Ready      ReadyProbe
	Version    string
	CORSOrigin string
	// RefreshTTL bounds the refresh cookie lifetime.
	RefreshTTL time.Duration
	// InsecureCookies drops the Secure flag for plain-HTTP development.
	InsecureCookies bool
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	sessions   *auth.Sessions
	videos     *video.Service
	social     *social.Service
	activity   *activity.Recorder
	stream     *stream.Stream
	readyProbe ReadyProbe
	version    string
	corsOrigin string
	refreshTTL time.Duration
	secure     bool
}

// New builds the API and registers all routes.
func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		sessions:   cfg.Sessions,
		videos:     cfg.Videos,
		social:     cfg.Social,
		activity:   cfg.Activity,
		stream:     cfg.Stream,
		readyProbe: cfg.Ready,
		version:    cfg.Version,
		corsOrigin: cfg.CORSOrigin,
		refreshTTL: cfg.RefreshTTL,
		secure:     !cfg.InsecureCookies,
	}
	if a.refreshTTL <= 0 {
		a.refreshTTL = 10 * 24 * time.Hour
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/users/register", a.handleRegister)
	a.mux.HandleFunc("/v1/users/login", a.handleLogin)
	a.mux.HandleFunc("/v1/users/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/users/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/users/change-password", a.handleChangePassword)
	a.mux.HandleFunc("/v1/users/me", a.handleMe)
	a.mux.HandleFunc("/v1/users/me/avatar", a.handleUpdateAvatar)
	a.mux.HandleFunc("/v1/users/me/cover", a.handleUpdateCover)
	a.mux.HandleFunc("/v1/users/watch-history", a.handleWatchHistory)
	a.mux.HandleFunc("/v1/users/activity", a.handleActivity)
	a.mux.HandleFunc("/v1/channels/", a.handleChannel)

	a.mux.HandleFunc("/v1/videos", a.handleVideos)
	a.mux.HandleFunc("/v1/videos/feed", a.handleFeed)
	a.mux.HandleFunc("/v1/videos/mine", a.handleMyVideos)
	a.mux.HandleFunc("/v1/videos/", a.handleVideoByID)

	a.mux.HandleFunc("/v1/comments", a.handleComments)
	a.mux.HandleFunc("/v1/comments/", a.handleCommentByID)
	a.mux.HandleFunc("/v1/likes/video", a.handleLikeVideo)
	a.mux.HandleFunc("/v1/likes/comment", a.handleLikeComment)
	a.mux.HandleFunc("/v1/likes/mine", a.handleLikedVideos)
	a.mux.HandleFunc("/v1/subscriptions/subscribers", a.handleSubscribers)
	a.mux.HandleFunc("/v1/subscriptions/mine", a.handleSubscriptions)
	a.mux.HandleFunc("/v1/subscriptions/", a.handleToggleSubscription)

	a.mux.HandleFunc("/v1/events", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withActivity(h)
	h = a.withAuth(h)
	h = RateLimit(h, 50, 25)
	h = MaxBodyBytes(h, maxBodySize)
	h = CORS(h, a.corsOrigin)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// withActivity records authenticated requests for the per-user activity
// feed. Reads of the feed itself and the event stream are skipped.
func (a *API) withActivity(next http.Handler) http.Handler {
	if a.activity == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := identity(r); ok {
			switch r.URL.Path {
			case "/v1/users/activity", "/v1/events":
			default:
				_ = a.activity.Record(r.Context(), u.ID, r.Method, r.URL.Path, clientIP(r), r.UserAgent())
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) publish(evt stream.Event) {
	if a.stream != nil {
		a.stream.Publish(evt)
	}
}
