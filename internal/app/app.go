package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mtsferreira/anatomy-game/internal/auth"
	"github.com/mtsferreira/anatomy-game/internal/auth/jwt"
	"github.com/mtsferreira/anatomy-game/internal/campaign"
	"github.com/mtsferreira/anatomy-game/internal/config"
	"github.com/mtsferreira/anatomy-game/internal/dashboard"
	"github.com/mtsferreira/anatomy-game/internal/db/repository"
	"github.com/mtsferreira/anatomy-game/internal/leaderboard"
	"github.com/mtsferreira/anatomy-game/internal/logging"
	"github.com/mtsferreira/anatomy-game/internal/mission"
	"github.com/mtsferreira/anatomy-game/internal/progress"
	"github.com/mtsferreira/anatomy-game/internal/quiz"
	"github.com/mtsferreira/anatomy-game/internal/server"
	"github.com/mtsferreira/anatomy-game/internal/user"
	ws "github.com/mtsferreira/anatomy-game/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// provisioner seeds per-user state when an account is created.
type provisioner struct {
	progress *progress.Service
	missions *mission.Service
}

func (p *provisioner) ProvisionNewUser(ctx context.Context, userID uuid.UUID) error {
	if err := p.progress.SeedSystems(ctx, userID); err != nil {
		return err
	}
	return p.missions.AssignDefaults(ctx, userID)
}

// New bootstraps config, logger, Postgres, Redis, services, and the HTTP
// server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	campaignRepo := repository.NewCampaignRepository(pool)
	missionRepo := repository.NewMissionRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)

	progressSvc := progress.NewService(progressRepo, logger)
	missionSvc := mission.NewService(missionRepo, userRepo, logger)

	var emailSvc *auth.EmailService
	if cfg.SMTP.Host != "" {
		emailSvc = auth.NewEmailService(auth.EmailConfig{
			SMTPHost:     cfg.SMTP.Host,
			SMTPPort:     cfg.SMTP.Port,
			SMTPUsername: cfg.SMTP.Username,
			SMTPPassword: cfg.SMTP.Password,
			FromEmail:    cfg.SMTP.FromEmail,
			ResetBaseURL: cfg.SMTP.ResetBaseURL,
		}, logger)
	} else {
		logger.Warn().Msg("SMTP not configured; password reset mail disabled")
	}

	tokenCfg := jwt.TokenConfig{
		AccessSecret:  []byte(cfg.Security.JWTSecret),
		RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
		AccessTTL:     cfg.Security.AccessTokenTTL,
		RefreshTTL:    cfg.Security.RefreshTokenTTL,
		Issuer:        cfg.Name,
	}

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: tokenCfg,
		Redis:       redisClient,
		EmailSvc:    emailSvc,
		Provisioner: &provisioner{progress: progressSvc, missions: missionSvc},
	}, logger)

	var oauthSvc *auth.OAuthService
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/v1/oauth/google/callback", cfg.HTTPAddr)
		}
		oauthSvc = auth.NewOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, redirectURL, logger)
		logger.Info().Msg("OAuth service initialized")
	} else {
		logger.Warn().Msg("OAuth not configured (missing GOOGLE_OAUTH_CLIENT_ID or GOOGLE_OAUTH_CLIENT_SECRET)")
	}

	quizSvc := quiz.NewService(quizRepo, progressRepo, userRepo, quiz.Options{
		DefaultQuestionLimit: cfg.Quiz.DefaultQuestionLimit,
		MaxQuestionLimit:     cfg.Quiz.MaxQuestionLimit,
		Rewarder:             missionSvc,
	}, logger)

	campaignSvc := campaign.NewService(campaignRepo, userRepo, logger)
	userSvc := user.NewService(userRepo, progressSvc, missionSvc, logger)

	leaderboardSvc := leaderboard.NewService(userRepo, leaderboardRepo, redisClient, leaderboard.ServiceOptions{
		TopN:     cfg.Leaderboard.SnapshotTopN,
		CacheTTL: cfg.Leaderboard.CacheTTL,
	}, logger)

	dashboardSvc := dashboard.NewService(userSvc, leaderboardSvc, logger)

	wsHub := ws.NewHub(logger)
	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, "", logger)
	wsHandler := leaderboard.NewWSHandler(wsHub, authSvc, logger)

	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(leaderboardSvc, interval, logger)
	}

	loginLimiter := auth.NewRateLimiter(redisClient, cfg.Security.LoginRatePerMinute, time.Minute, "rl:login", logger)

	handlers := server.Handlers{
		Auth:           auth.NewHTTPHandlers(authSvc, oauthSvc, logger),
		Users:          user.NewHTTPHandlers(userSvc, logger),
		Quiz:           quiz.NewHTTPHandlers(quizSvc, logger),
		Campaigns:      campaign.NewHTTPHandlers(campaignSvc, logger),
		Dashboard:      dashboard.NewHTTPHandlers(dashboardSvc, logger),
		Leaderboard:    leaderboard.NewHTTPHandler(leaderboardSvc, logger),
		WS:             wsHandler.HandleWebSocket,
		AuthMiddleware: authSvc.Middleware,
		LoginRateLimit: loginLimiter.Middleware,
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, handlers)

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}
}
