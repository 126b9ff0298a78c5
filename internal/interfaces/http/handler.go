package http

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"supportbot/internal/entities"
	"supportbot/internal/infrastructure"
	"supportbot/internal/interfaces"
	"supportbot/internal/llm"
	"supportbot/internal/repository"
	"supportbot/internal/routing"
	"supportbot/internal/usecases"
)

// SessionAPI is the session read/insight surface used by the handlers.
type SessionAPI interface {
	Create(ctx context.Context, customerID string) (*entities.Session, error)
	Get(ctx context.Context, id string) (*entities.Session, error)
	Messages(ctx context.Context, id string, limit int) ([]entities.ChatTurn, error)
	Summary(ctx context.Context, id string) (string, error)
	NextActions(ctx context.Context, id string) (llm.NextActions, error)
	Metrics(ctx context.Context, id string) (*entities.ConversationMetrics, error)
}

// FAQAPI is the FAQ and escalation management surface.
type FAQAPI interface {
	List(ctx context.Context, includeInactive bool) ([]entities.FAQEntry, error)
	Categories(ctx context.Context) ([]repository.CategoryCount, error)
	Add(ctx context.Context, e entities.FAQEntry) (*entities.FAQEntry, error)
	Import(ctx context.Context, filename string, data []byte, replace bool) (*usecases.ImportResult, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) (int64, error)
	ListEscalations(ctx context.Context, status entities.EscalationStatus, limit int) ([]entities.EscalationRecord, error)
	UpdateEscalation(ctx context.Context, id string, status entities.EscalationStatus, assignedTo string) (*entities.EscalationRecord, error)
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Chat       interfaces.ChatHandler
	Sessions   SessionAPI
	FAQs       FAQAPI
	Auth       Authenticator
	DB         Pinger
	Catalog    interface{ Len() int }
	Middleware *Middleware
	Logger     zerolog.Logger

	MaxBodyBytes   int64
	MaxUploadBytes int64
	AdminRate      rate.Limit
	AdminBurst     int
}

type Handler struct {
	chat     interfaces.ChatHandler
	sessions SessionAPI
	db       Pinger
	catalog  interface{ Len() int }
	log      zerolog.Logger
	started  time.Time
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		chat:     d.Chat,
		sessions: d.Sessions,
		db:       d.DB,
		catalog:  d.Catalog,
		log:      d.Logger,
		started:  time.Now(),
	}
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := NewHandler(d)
	admin := NewAdminHandler(d.FAQs, d.Auth, d.MaxUploadBytes, d.Logger)
	m := d.Middleware
	if d.AdminBurst <= 0 {
		d.AdminRate, d.AdminBurst = 5, 10
	}
	bodyLimit := d.MaxUploadBytes
	if bodyLimit < d.MaxBodyBytes {
		bodyLimit = d.MaxBodyBytes
	}
	if bodyLimit <= 0 {
		bodyLimit = 10 << 20
	}

	r.Use(RequestLogger(d.Logger))
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(bodyLimit))
	r.Use(m.CORSMiddleware())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth/login", admin.Login)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/chat", h.Chat)

		v1.POST("/sessions", h.CreateSession)
		v1.GET("/sessions/:id", h.GetSession)
		v1.GET("/sessions/:id/messages", h.GetMessages)
		v1.GET("/sessions/:id/summary", h.GetSummary)
		v1.GET("/sessions/:id/next-actions", h.GetNextActions)
		v1.GET("/sessions/:id/metrics", h.GetMetrics)

		v1.GET("/faqs", admin.ListFAQs)
		v1.GET("/faqs/categories", admin.Categories)
	}

	protected := r.Group("/api/v1")
	protected.Use(m.AuthRequired())
	protected.Use(m.RateLimitPerUser(d.AdminRate, d.AdminBurst))
	{
		protected.POST("/faqs", admin.CreateFAQ)
		protected.POST("/faqs/upload", admin.UploadFAQs)
		protected.DELETE("/faqs/clear/all", admin.ClearFAQs)
		protected.DELETE("/faqs/:id", admin.DeleteFAQ)

		protected.GET("/escalations", admin.ListEscalations)
		protected.PATCH("/escalations/:id", admin.UpdateEscalation)
	}
}

func (h *Handler) Health(c *gin.Context) {
	status, dbStatus, code := "healthy", "ok", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status, dbStatus, code = "degraded", err.Error(), http.StatusServiceUnavailable
		}
	}
	faqCount := 0
	if h.catalog != nil {
		faqCount = h.catalog.Len()
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"faq_count": faqCount,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

type chatRequest struct {
	Message    string `json:"message" binding:"max=5000"`
	SessionID  string `json:"session_id" binding:"omitempty,max=64"`
	CustomerID string `json:"customer_id" binding:"omitempty,max=128"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.SessionID != "" && !ValidIdentifier(req.SessionID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session_id"})
		return
	}

	resp, err := h.chat.HandleMessage(c.Request.Context(), entities.ChatRequest{
		Message:    SanitizeString(req.Message),
		SessionID:  req.SessionID,
		CustomerID: SanitizeString(req.CustomerID),
		Channel:    "web",
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req struct {
		CustomerID string `json:"customer_id" binding:"omitempty,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sess, err := h.sessions.Create(c.Request.Context(), SanitizeString(req.CustomerID))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) GetMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	turns, err := h.sessions.Messages(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if turns == nil {
		turns = []entities.ChatTurn{}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("id"), "messages": turns})
}

func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.sessions.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("id"), "summary": summary})
}

func (h *Handler) GetNextActions(c *gin.Context) {
	na, err := h.sessions.NextActions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":           c.Param("id"),
		"next_actions":         na.Actions,
		"recommend_escalation": na.RecommendEscalation,
	})
}

func (h *Handler) GetMetrics(c *gin.Context) {
	m, err := h.sessions.Metrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// writeError maps domain errors to HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	writeError(c, h.log, err)
}

func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var rl *usecases.RateLimitError
	switch {
	case errors.Is(err, routing.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": routing.GuidanceMessage})
	case errors.Is(err, usecases.ErrMessageTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is too long"})
	case errors.As(err, &rl):
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many messages, please slow down", "retry_after": secs})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, usecases.ErrInvalidFAQ),
		errors.Is(err, usecases.ErrInvalidState),
		errors.Is(err, usecases.ErrNoFAQsFound),
		errors.Is(err, infrastructure.ErrUnsupportedDocument),
		errors.Is(err, infrastructure.ErrEmptyDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
