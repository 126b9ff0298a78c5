package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/infrastructure"
	"supportbot/internal/usecases"
)

// AdminHandler serves FAQ management, escalation triage and login.
type AdminHandler struct {
	faqs           FAQAPI
	auth           Authenticator
	maxUploadBytes int64
	log            zerolog.Logger
}

func NewAdminHandler(faqs FAQAPI, auth Authenticator, maxUploadBytes int64, logger zerolog.Logger) *AdminHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &AdminHandler{faqs: faqs, auth: auth, maxUploadBytes: maxUploadBytes, log: logger}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
	if errors.Is(err, usecases.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) ListFAQs(c *gin.Context) {
	entries, err := h.faqs.List(c.Request.Context(), false)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []entities.FAQEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"faqs": entries, "count": len(entries)})
}

func (h *AdminHandler) Categories(c *gin.Context) {
	cats, err := h.faqs.Categories(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *AdminHandler) CreateFAQ(c *gin.Context) {
	var req struct {
		Question string   `json:"question" binding:"required"`
		Answer   string   `json:"answer" binding:"required"`
		Category string   `json:"category" binding:"omitempty,max=100"`
		Keywords []string `json:"keywords"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	e, err := h.faqs.Add(c.Request.Context(), entities.FAQEntry{
		Question: SanitizeString(req.Question),
		Answer:   SanitizeString(req.Answer),
		Category: SanitizeString(req.Category),
		Keywords: req.Keywords,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// UploadFAQs ingests a PDF, TXT or CSV file from the "file" form field. The
// active set is replaced unless append=true.
func (h *AdminHandler) UploadFAQs(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	name := filepath.Base(fh.Filename)
	if infrastructure.DocumentKind(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, TXT and CSV files are supported"})
		return
	}
	if fh.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read file"})
		return
	}

	replace := c.DefaultQuery("append", "false") != "true"
	res, err := h.faqs.Import(c.Request.Context(), name, data, replace)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "FAQ document processed",
		"result":  res,
	})
}

func (h *AdminHandler) DeleteFAQ(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid FAQ id"})
		return
	}
	if err := h.faqs.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

func (h *AdminHandler) ClearFAQs(c *gin.Context) {
	n, err := h.faqs.Clear(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "deactivated": n})
}

func (h *AdminHandler) ListEscalations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.faqs.ListEscalations(c.Request.Context(), entities.EscalationStatus(c.Query("status")), limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if list == nil {
		list = []entities.EscalationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"escalations": list, "count": len(list)})
}

func (h *AdminHandler) UpdateEscalation(c *gin.Context) {
	var req struct {
		Status     string `json:"status" binding:"required"`
		AssignedTo string `json:"assigned_to" binding:"omitempty,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	rec, err := h.faqs.UpdateEscalation(c.Request.Context(), c.Param("id"), entities.EscalationStatus(req.Status), SanitizeString(req.AssignedTo))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
