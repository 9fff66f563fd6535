package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"pollguard/internal/domain/user"
	"pollguard/internal/platform/apperr"
	jwtpkg "pollguard/internal/platform/jwt"
	"pollguard/internal/polling"
	"pollguard/internal/worker"
)

type Deps struct {
	Polls         *polling.Service
	Users         *user.Service
	JWT           *jwtpkg.Manager
	JWTTTL        time.Duration
	VoteCh        chan<- worker.VoteEvent
	DB            *sql.DB
	Redis         redis.UniversalClient
	VoteRate      rate.Limit
	VoteBurst     int
	SecureCookies bool
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
}

type Handler struct {
	polls  *polling.Service
	users  *user.Service
	jwtMgr *jwtpkg.Manager
	jwtTTL time.Duration
	voteCh chan<- worker.VoteEvent
	db     *sql.DB
	redis  redis.UniversalClient
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		polls:  d.Polls,
		users:  d.Users,
		jwtMgr: d.JWT,
		jwtTTL: d.JWTTTL,
		voteCh: d.VoteCh,
		db:     d.DB,
		redis:  d.Redis,
	}
	if h.jwtTTL <= 0 {
		h.jwtTTL = 24 * time.Hour
	}
	if d.VoteRate == 0 {
		d.VoteRate = rate.Every(time.Minute / 10)
	}
	if d.VoteBurst <= 0 {
		d.VoteBurst = 3
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware(d.JWT, d.SecureCookies))

			r.Get("/auth/me", h.handleMe)
			r.Get("/csrf", h.handleIssueToken)

			r.Post("/polls", h.handleCreatePoll)
			r.Get("/polls/mine", h.handleListMyPolls)
			r.Get("/polls/{id}", h.handleGetPoll)
			r.Put("/polls/{id}", h.handleUpdatePoll)
			r.Delete("/polls/{id}", h.handleDeletePoll)
			r.With(RateLimitVotes(d.VoteRate, d.VoteBurst)).Post("/polls/{id}/votes", h.handleVote)
			r.Get("/polls/{id}/results", h.handlePollResults)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setNextToken hands the rotated anti-forgery token back to the client.
func setNextToken(w http.ResponseWriter, token string) {
	if token != "" {
		w.Header().Set(csrfHeader, token)
	}
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		errorResponse(w, apperr.Unavailable("db_unavailable", "database not configured", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		errorResponse(w, apperr.Unavailable("db_unavailable", "database not ready", err))
		return
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			errorResponse(w, apperr.Unavailable("redis_unavailable", "token store not ready", err))
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
