package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	"github.com/mtsferreira/anatomy-game/internal/campaign"
	"github.com/mtsferreira/anatomy-game/internal/config"
	"github.com/mtsferreira/anatomy-game/internal/dashboard"
	"github.com/mtsferreira/anatomy-game/internal/leaderboard"
	"github.com/mtsferreira/anatomy-game/internal/logging"
	"github.com/mtsferreira/anatomy-game/internal/quiz"
	"github.com/mtsferreira/anatomy-game/internal/user"
)

// Handlers bundles every HTTP surface the server mounts.
type Handlers struct {
	Auth        *auth.HTTPHandlers
	Users       *user.HTTPHandlers
	Quiz        *quiz.HTTPHandlers
	Campaigns   *campaign.HTTPHandlers
	Dashboard   *dashboard.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandler
	WS          http.HandlerFunc

	AuthMiddleware func(http.Handler) http.Handler
	LoginRateLimit func(http.Handler) http.Handler
}

// NewHTTPServer wires health, metrics, and the /v1 API routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	protect := h.AuthMiddleware
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	rateLimit := h.LoginRateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}

	if h.Auth != nil {
		mux.HandleFunc("/v1/auth/register", h.Auth.Register)
		mux.Handle("/v1/auth/login", rateLimit(http.HandlerFunc(h.Auth.Login)))
		mux.HandleFunc("/v1/auth/refresh", h.Auth.RefreshToken)
		mux.HandleFunc("/v1/auth/logout", h.Auth.Logout)
		mux.HandleFunc("/v1/auth/forgot-password", h.Auth.ForgotPassword)
		mux.HandleFunc("/v1/auth/reset-password", h.Auth.ResetPassword)
		mux.HandleFunc("/v1/oauth/{provider}/start", h.Auth.OAuthStart)
		mux.HandleFunc("/v1/oauth/{provider}/callback", h.Auth.OAuthCallback)
	}

	if h.Users != nil {
		mux.Handle("/v1/users/me", protect(http.HandlerFunc(h.Users.Me)))
		mux.Handle("/v1/users/me/summary", protect(http.HandlerFunc(h.Users.Summary)))
		mux.Handle("/v1/users/me/preferences", protect(http.HandlerFunc(h.Users.Preferences)))
	}

	if h.Quiz != nil {
		mux.Handle("/v1/quizzes/sessions", protect(http.HandlerFunc(h.Quiz.CreateSession)))
		mux.Handle("/v1/quizzes/sessions/{id}/attempts", protect(http.HandlerFunc(h.Quiz.SubmitAttempt)))
		mux.Handle("/v1/quizzes/sessions/{id}/complete", protect(http.HandlerFunc(h.Quiz.CompleteSession)))
	}

	if h.Campaigns != nil {
		mux.Handle("/v1/campaigns", protect(http.HandlerFunc(h.Campaigns.List)))
		mux.Handle("/v1/campaigns/lessons/{id}/progress", protect(http.HandlerFunc(h.Campaigns.LessonProgress)))
	}

	if h.Dashboard != nil {
		mux.Handle("/v1/dashboard/summary", protect(http.HandlerFunc(h.Dashboard.Summary)))
	}

	if h.Leaderboard != nil {
		mux.Handle("/v1/leaderboard", protect(http.HandlerFunc(h.Leaderboard.HandleGet)))
	}

	if h.WS != nil {
		mux.HandleFunc("/ws/leaderboard", h.WS)
	}

	handler := corsMiddleware(cfg.CORS, mux)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowedOrigins[o] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowedOrigins["*"] || allowedOrigins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", maxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
