// Package httpapi wires the HTTP transport (Gin) to the chat services,
// middleware, and route handlers.
//
// Middleware order:
//  1. OpenTelemetry tracing
//  2. RequestID, then the request-scoped logger
//  3. Access log with redaction, then panic recovery
//  4. Body size cap and gzip
//  5. Metrics
//  6. Idempotency validation (before rate limiting so replays bypass it)
//  7. Rate limiting per caller or IP
//  8. CORS and security headers
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-commerce-chat/docs" // swagger spec registration
	"github.com/tbourn/go-commerce-chat/internal/config"
	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/http/handlers"
	"github.com/tbourn/go-commerce-chat/internal/http/middleware"
	"github.com/tbourn/go-commerce-chat/internal/llm"
	"github.com/tbourn/go-commerce-chat/internal/repo"
	"github.com/tbourn/go-commerce-chat/internal/services"
)

// conversationRepoShim adapts the repo free functions to
// services.ConversationRepo.
type conversationRepoShim struct{}

func (conversationRepoShim) CreateConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID)
}

func (conversationRepoShim) GetConversation(ctx context.Context, db *gorm.DB, conversationID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, conversationID)
}

func (conversationRepoShim) ListConversations(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID, limit)
}

func (conversationRepoShim) SetTitleOnce(ctx context.Context, db *gorm.DB, conversationID, title string, at time.Time) (bool, error) {
	return repo.SetTitleOnce(ctx, db, conversationID, title, at)
}

func (conversationRepoShim) CreateMessage(ctx context.Context, db *gorm.DB, conversationID, sender, content string, md domain.MessageMetadata) (*domain.Message, error) {
	return repo.CreateMessage(ctx, db, conversationID, sender, content, md)
}

func (conversationRepoShim) ListMessages(ctx context.Context, db *gorm.DB, conversationID string, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, db, conversationID, limit)
}

func (conversationRepoShim) CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	return repo.CountMessages(ctx, db, conversationID)
}

// repoStore binds the handlers' stats and idempotency contracts to db.
type repoStore struct{ db *gorm.DB }

func (s repoStore) ConversationsStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.ConversationsStats(ctx, s.db, userID)
}

func (s repoStore) MessagesStats(ctx context.Context, conversationID string) (int64, *time.Time, error) {
	return repo.MessagesStats(ctx, s.db, conversationID)
}

func (s repoStore) Get(ctx context.Context, callerID, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, callerID, key, now)
}

func (s repoStore) Save(ctx context.Context, rec repo.IdempotencyRecord, ttl time.Duration) error {
	_, err := repo.CreateIdempotency(ctx, s.db, rec, ttl)
	return err
}

// lookup reports whether a live record exists; a storage error is a miss.
func (s repoStore) lookup(ctx context.Context, callerID, key string, now time.Time) (bool, error) {
	rec, err := s.Get(ctx, callerID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return rec != nil && err == nil, err
}

// corsHeaders are shared by both CORS postures.
var (
	corsAllowHeaders  = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	corsExposeHeaders = []string{"X-Request-ID", "Content-Length", "ETag", handlers.HeaderIdempotencyReplayed, "Retry-After"}
)

// RegisterRoutes attaches middleware and endpoints to r. completer serves
// both the intent and the reply calls.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, completer llm.Completer, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	store := repoStore{db: db}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.ContextLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, store.lookup))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByCaller())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services <- repo/db/llm
	conversations := services.NewConversationService(db, conversationRepoShim{})
	chat := &services.ChatService{
		Conversations:   conversations,
		Extractor:       services.NewIntentExtractor(completer, extractorConfig(cfg.LLM)),
		Retriever:       &services.ContextRetriever{Catalog: &services.CatalogService{DB: db}},
		Generator:       services.NewResponseGenerator(completer, generatorConfig(cfg.LLM)),
		MaxMessageRunes: cfg.MaxMessageRunes,
	}
	h := handlers.New(handlers.Deps{
		Chat:           chat,
		Conversations:  conversations,
		Stats:          store,
		Idempotency:    store,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Development:    cfg.Development(),
	})

	r.GET("/health", h.Health)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/chat", h.PostChat)
		api.GET("/chat/conversations/:user_id", h.ListConversations)
		api.GET("/chat/history/:conversation_id", h.GetHistory)
	}
}

func extractorConfig(c config.LLMConfig) services.ExtractorConfig {
	out := services.DefaultExtractorConfig()
	if c.Model != "" {
		out.Model = c.Model
	}
	if c.IntentTemperature >= 0 {
		out.Temperature = c.IntentTemperature
	}
	if c.IntentMaxTokens > 0 {
		out.MaxTokens = c.IntentMaxTokens
	}
	if c.IntentTimeout > 0 {
		out.Timeout = c.IntentTimeout
	}
	return out
}

func generatorConfig(c config.LLMConfig) services.GeneratorConfig {
	out := services.DefaultGeneratorConfig()
	if c.Model != "" {
		out.Model = c.Model
	}
	if c.ReplyTemperature >= 0 {
		out.Temperature = c.ReplyTemperature
	}
	if c.ReplyMaxTokens > 0 {
		out.MaxTokens = c.ReplyMaxTokens
	}
	if c.ReplyTimeout > 0 {
		out.Timeout = c.ReplyTimeout
	}
	if c.PriceLocale.String() != "und" {
		out.Locale = c.PriceLocale
	}
	return out
}

// corsMiddleware allows any origin when origins is empty and otherwise echoes
// allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// ACAO is set even without an Origin header so simple probes see it.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:    corsAllowHeaders,
				ExposeHeaders:   corsExposeHeaders,
				MaxAge:          12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  corsAllowHeaders,
			ExposeHeaders: corsExposeHeaders,
			MaxAge:        12 * time.Hour,
		}),
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
