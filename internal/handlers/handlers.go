package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"playaway/internal/config"
	"playaway/internal/geo"
	"playaway/internal/middleware"
	"playaway/internal/models"
	"playaway/internal/notify"
	"playaway/internal/ratelimit"
	"playaway/internal/repository"
	"playaway/internal/service"
	"playaway/internal/storage"
)

type HandlerSet struct {
	log             zerolog.Logger
	cfg             *config.AppConfig
	db              *pgxpool.Pool
	cache           *redis.Client
	limiter         *ratelimit.Limiter
	geoCache        *geo.Cache
	authService     *service.AuthService
	approvalService *service.ApprovalService
	eventService    *service.EventService
	reviewService   *service.ReviewService
	clubService     *service.ClubService
	accounts        *repository.AccountRepository
	sessions        *repository.SessionRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	cfg *config.AppConfig,
) HandlerSet {
	accountRepo := repository.NewAccountRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	clubRepo := repository.NewClubRepository(db)
	eventRepo := repository.NewEventRepository(db)
	reportRepo := repository.NewReportRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	dispatcher := notify.NewDispatcher(cache, cfg.Notify, log)
	geoCache := geo.NewCache(geo.NewNominatimClient(cfg.Geocode), cfg.Geocode.CacheTTL, log)

	var counterStore ratelimit.Store
	if cfg.RateLimit.Backend == "redis" {
		counterStore = ratelimit.NewRedisStore(cache)
	} else {
		counterStore = ratelimit.NewMemoryStore()
	}
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiterFromConfig(counterStore, cfg.RateLimit)
	}

	reviewSvc := service.NewReviewService(tokenRepo, cfg.Security, log)

	return HandlerSet{
		log:             log,
		cfg:             cfg,
		db:              db,
		cache:           cache,
		limiter:         limiter,
		geoCache:        geoCache,
		authService:     service.NewAuthService(accountRepo, sessionRepo, cfg, log),
		approvalService: service.NewApprovalService(accountRepo, dispatcher, log),
		eventService:    service.NewEventService(eventRepo, reportRepo, clubRepo, accountRepo, reviewSvc, geoCache, dispatcher, log),
		reviewService:   reviewSvc,
		clubService:     service.NewClubService(clubRepo, store, cfg, log),
		accounts:        accountRepo,
		sessions:        sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.Use(h.rateLimit(ratelimit.BucketAuth))
	auth.POST("/register", h.RegisterAccount)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)

	authed := v1.Group("/auth")
	authed.Use(middleware.Auth(h.cfg, h.accounts, h.sessions))
	authed.GET("/me", h.Me)

	events := v1.Group("/events")
	events.GET("", h.rateLimit(ratelimit.BucketPublic), h.ListEvents)

	eventForms := v1.Group("/events")
	eventForms.Use(
		middleware.Auth(h.cfg, h.accounts, h.sessions),
		h.rateLimit(ratelimit.BucketForms),
	)
	eventForms.POST("", h.CreateEvent)
	eventForms.POST("/:id/status", h.SetEventStatus)
	eventForms.POST("/:id/appeal", h.FileAppeal)
	eventForms.POST("/:id/dismiss", h.DismissRejection)
	eventForms.POST("/:id/attendees", h.RegisterAttendee)
	eventForms.POST("/:id/report", h.SubmitReport)
	eventForms.POST("/:id/report/publish", h.PublishReport)

	reviews := v1.Group("/reviews")
	reviews.GET("/:token", h.rateLimit(ratelimit.BucketPublic), h.ValidateReviewToken)
	reviews.POST("/:token", h.rateLimit(ratelimit.BucketForms), h.SubmitReview)

	clubs := v1.Group("/clubs")
	clubs.Use(middleware.Auth(h.cfg, h.accounts, h.sessions))
	clubs.POST("", h.rateLimit(ratelimit.BucketForms), h.CreateClub)
	clubs.POST("/:id/crest", h.rateLimit(ratelimit.BucketUpload), h.UploadCrest)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg, h.accounts, h.sessions),
		middleware.RequireRoles(models.AccountRoleSuperAdmin),
		h.rateLimit(ratelimit.BucketAdmin),
	)
	admin.GET("/accounts", h.AdminListAccounts)
	admin.POST("/accounts/:id/approve", h.AdminApproveAccount)
	admin.POST("/accounts/:id/reject", h.AdminRejectAccount)
	admin.GET("/events", h.AdminListEvents)
	admin.POST("/events/:id/review", h.AdminReviewEvent)
	admin.POST("/events/:id/appeal", h.AdminResolveAppeal)
	admin.POST("/tokens/issue", h.AdminIssueToken)
	admin.POST("/tokens/sweep", h.AdminSweepTokens)
	admin.POST("/geocache/cleanup", h.AdminCleanupGeocache)
}

func (h HandlerSet) rateLimit(bucket ratelimit.Bucket) gin.HandlerFunc {
	return middleware.RateLimit(h.limiter, bucket, h.log)
}

// GeoCache exposes the cache for the maintenance scheduler.
func (h HandlerSet) GeoCache() *geo.Cache {
	return h.geoCache
}

// ReviewService exposes token maintenance for the scheduler.
func (h HandlerSet) ReviewService() *service.ReviewService {
	return h.reviewService
}
