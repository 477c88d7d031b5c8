package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"neurothrive/internal/config"
	"neurothrive/internal/metrics"
	"neurothrive/internal/repository"
	"neurothrive/internal/risk"
	"neurothrive/internal/screening"
	"neurothrive/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ScreeningHandler struct {
	log     *zap.Logger
	service *screening.Service
	history *repository.ScreeningRepository
	cfg     func() config.ScreeningConfig
}

func NewScreeningHandler(log *zap.Logger, service *screening.Service, history *repository.ScreeningRepository, cfg func() config.ScreeningConfig) *ScreeningHandler {
	return &ScreeningHandler{log: log, service: service, history: history, cfg: cfg}
}

// Upload accepts a video under the "file" or "video" form field, runs it
// through the analyzer and returns the stored, classified result.
func (h *ScreeningHandler) Upload(c *gin.Context) {
	cfg := h.cfg()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadMB<<20)

	header, err := formVideo(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, MsgUploadTooLarge)
			return
		}
		respondError(c, http.StatusBadRequest, MsgVideoRequired)
		return
	}
	if !screening.SupportedFormat(header.Filename) {
		respondError(c, http.StatusBadRequest, MsgUnsupportedFormat)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.log.Error("Failed to open uploaded video", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	defer file.Close()

	user := session.Gate(c).Current()
	out, err := h.service.Screen(c.Request.Context(), screening.Request{
		UserID:         user.UserID,
		Filename:       header.Filename,
		Video:          file,
		Consent:        consentGiven(c.PostForm("consent")),
		RequireConsent: cfg.RequireConsent,
	})
	switch {
	case errors.Is(err, screening.ErrUnsupportedFormat):
		respondError(c, http.StatusBadRequest, MsgUnsupportedFormat)
		return
	case errors.Is(err, screening.ErrConsentRequired):
		respondError(c, http.StatusBadRequest, MsgConsentRequired)
		return
	case errors.Is(err, screening.ErrAnalyzerUnavailable):
		h.log.Error("Screening analyzer unavailable", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, MsgAnalyzerUnavailable)
		return
	case errors.Is(err, screening.ErrAnalyzerFailed):
		h.log.Warn("Screening analysis failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, MsgAnalyzerFailed)
		return
	case err != nil:
		h.log.Error("Failed to record screening", zap.Uint("userID", user.UserID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	metrics.RiskClassifications.WithLabelValues(string(out.Classification.Label), "screening").Inc()
	c.JSON(http.StatusOK, gin.H{
		"screening_log_id":  out.Log.PublicID,
		"saved_to_database": true,
		"risk":              out.Log.RiskScore,
		"risk_label":        out.Classification.Label,
		"classification":    out.Classification,
		"indicators":        out.Result.Indicators,
		"gaze_metrics":      out.Result.GazeMetrics,
		"shap_importance":   out.Result.ShapImportance,
		"heatmap_base64":    out.Result.HeatmapBase64,
	})
}

func formVideo(c *gin.Context) (*multipart.FileHeader, error) {
	header, err := c.FormFile("file")
	if err == nil {
		return header, nil
	}
	if !errors.Is(err, http.ErrMissingFile) {
		return nil, err
	}
	return c.FormFile("video")
}

func consentGiven(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

type screeningItem struct {
	ID             uuid.UUID           `json:"id"`
	UploadedBy     uint                `json:"uploaded_by"`
	RiskScore      float64             `json:"risk_score"`
	RiskLabel      string              `json:"risk_label"`
	Classification risk.Classification `json:"classification"`
	Indicators     json.RawMessage     `json:"indicators"`
	ConsentGiven   bool                `json:"consent_given"`
	CreatedAt      time.Time           `json:"created_at"`
}

// History lists the most recent screenings from every uploader, newest first.
func (h *ScreeningHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, MsgInvalidRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	logs, err := h.history.ListScreenings(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list screenings", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	items := make([]screeningItem, 0, len(logs))
	for _, l := range logs {
		indicators := json.RawMessage(l.IndicatorsJSON)
		if !json.Valid(indicators) {
			indicators = json.RawMessage("{}")
		}
		items = append(items, screeningItem{
			ID:             l.PublicID,
			UploadedBy:     l.UploadedBy,
			RiskScore:      l.RiskScore,
			RiskLabel:      l.RiskLabel,
			Classification: risk.ClassifyFraction(l.RiskScore),
			Indicators:     indicators,
			ConsentGiven:   l.ConsentGiven,
			CreatedAt:      l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "screenings": items})
}
