package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"neurothrive/internal/metrics"
	"neurothrive/internal/models"
	"neurothrive/internal/monitoring"
	"neurothrive/internal/repository"
	"neurothrive/internal/risk"
	"neurothrive/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	recentCheckinWindow = 7
	defaultTrendDays    = 30
	maxTrendDays        = 365
)

type MonitoringHandler struct {
	log      *zap.Logger
	patients *repository.PatientRepository
	store    *repository.MonitoringRepository
	now      func() time.Time
}

func NewMonitoringHandler(log *zap.Logger, patients *repository.PatientRepository, store *repository.MonitoringRepository) *MonitoringHandler {
	return &MonitoringHandler{log: log, patients: patients, store: store, now: time.Now}
}

type checkinRequest struct {
	PatientID             uint     `json:"patient_id" binding:"required"`
	SleepHours            *float64 `json:"sleep_hours" binding:"omitempty,gte=0,lte=24"`
	SleepQuality          string   `json:"sleep_quality" binding:"max=40"`
	SleepDisturbances     *int     `json:"sleep_disturbances" binding:"omitempty,gte=0"`
	MoodMorning           string   `json:"mood_morning" binding:"max=30"`
	Appetite              string   `json:"appetite" binding:"max=30"`
	CommunicationAttempts *int     `json:"communication_attempts" binding:"omitempty,gte=0"`
	NewWords              []string `json:"new_words"`
	SocialInteractions    *int     `json:"social_interactions" binding:"omitempty,gte=0"`
	SensoryAvoidanceCount *int     `json:"sensory_avoidance_count" binding:"omitempty,gte=0"`
	Meltdowns             *int     `json:"meltdowns" binding:"omitempty,gte=0"`
	MeltdownTrigger       string   `json:"meltdown_trigger" binding:"max=120"`
	MeltdownDurationMin   *int     `json:"meltdown_duration_min" binding:"omitempty,gte=0"`
	SelfHarmIncidents     *int     `json:"self_harm_incidents" binding:"omitempty,gte=0"`
	PositiveMoments       []string `json:"positive_moments"`
	TherapyCompleted      bool     `json:"therapy_completed"`
	SkillPracticeDone     bool     `json:"skill_practice_done"`
	OverallDayRating      *int     `json:"overall_day_rating" binding:"omitempty,min=1,max=10"`
}

type checkinResponse struct {
	ID              uint                `json:"id"`
	PatientID       uint                `json:"patient_id"`
	CheckinDate     time.Time           `json:"checkin_date"`
	CrisisRiskScore float64             `json:"crisis_risk_score"`
	CrisisRiskLevel monitoring.Level    `json:"crisis_risk_level"`
	Classification  risk.Classification `json:"classification"`
	PreventionSteps []string            `json:"prevention_steps"`
}

func newCheckinResponse(row *models.DailyCheckin) checkinResponse {
	return checkinResponse{
		ID:              row.ID,
		PatientID:       row.PatientID,
		CheckinDate:     row.CheckinDate,
		CrisisRiskScore: row.CrisisRiskScore,
		CrisisRiskLevel: monitoring.Level(row.CrisisRiskLevel),
		Classification:  risk.Classify(row.CrisisRiskScore, risk.Fraction),
	}
}

func scorerInput(row *models.DailyCheckin) monitoring.Checkin {
	return monitoring.Checkin{
		SleepDisturbances:     row.SleepDisturbances,
		MoodMorning:           row.MoodMorning,
		Appetite:              row.Appetite,
		CommunicationAttempts: row.CommunicationAttempts,
		SensoryAvoidanceCount: row.SensoryAvoidanceCount,
		Meltdowns:             row.Meltdowns,
		SelfHarmIncidents:     row.SelfHarmIncidents,
	}
}

// SubmitCheckin stores a daily check-in, scores it against the previous week
// and opens a predicted crisis event when the risk is above low.
func (h *MonitoringHandler) SubmitCheckin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if req.SleepHours != nil && (math.IsNaN(*req.SleepHours) || math.IsInf(*req.SleepHours, 0)) {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if _, ok := accessPatient(c, h.log, h.patients, req.PatientID); !ok {
		return
	}

	ctx := c.Request.Context()
	recentRows, err := h.store.RecentCheckins(ctx, req.PatientID, recentCheckinWindow)
	if err != nil {
		h.log.Error("Failed to load recent check-ins", zap.Uint("patientID", req.PatientID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	recent := make([]monitoring.Checkin, 0, len(recentRows))
	for i := range recentRows {
		recent = append(recent, scorerInput(&recentRows[i]))
	}

	now := h.now().UTC()
	row := &models.DailyCheckin{
		PatientID:             req.PatientID,
		SubmittedBy:           session.Gate(c).Current().UserID,
		CheckinDate:           now,
		CreatedAt:             now,
		SleepHours:            req.SleepHours,
		SleepQuality:          req.SleepQuality,
		SleepDisturbances:     req.SleepDisturbances,
		MoodMorning:           req.MoodMorning,
		Appetite:              req.Appetite,
		CommunicationAttempts: req.CommunicationAttempts,
		NewWordsJSON:          jsonList(req.NewWords),
		SocialInteractions:    req.SocialInteractions,
		SensoryAvoidanceCount: req.SensoryAvoidanceCount,
		Meltdowns:             valueOrZero(req.Meltdowns),
		MeltdownTrigger:       req.MeltdownTrigger,
		MeltdownDurationMin:   req.MeltdownDurationMin,
		PositiveMomentsJSON:   jsonList(req.PositiveMoments),
		TherapyCompleted:      req.TherapyCompleted,
		SkillPracticeDone:     req.SkillPracticeDone,
		OverallDayRating:      req.OverallDayRating,
	}
	if req.SelfHarmIncidents != nil {
		row.SelfHarmIncidents = *req.SelfHarmIncidents
	}

	assessment := monitoring.Assess(scorerInput(row), recent)
	row.CrisisRiskScore = assessment.Score
	row.CrisisRiskLevel = string(assessment.Level)

	var event *models.CrisisEvent
	if assessment.Escalates() {
		score := assessment.Score
		event = &models.CrisisEvent{
			CreatedAt:           now,
			Status:              models.CrisisPredicted,
			RiskScore:           &score,
			RiskLevel:           string(assessment.Level),
			TriggerSignalsJSON:  jsonList(assessment.Signals),
			PreventionStepsJSON: jsonList(assessment.Prevention),
		}
	}
	if err := h.store.SaveCheckin(ctx, row, event); err != nil {
		h.log.Error("Failed to save check-in", zap.Uint("patientID", req.PatientID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	metrics.RiskClassifications.WithLabelValues(string(assessment.Classification.Label), "checkin").Inc()
	h.log.Info("Check-in recorded",
		zap.Uint("patientID", req.PatientID),
		zap.Float64("risk", assessment.Score),
		zap.String("level", string(assessment.Level)),
		zap.Bool("crisisPredicted", event != nil),
	)

	out := newCheckinResponse(row)
	out.PreventionSteps = []string{}
	if assessment.Escalates() {
		out.PreventionSteps = assessment.Prevention
	}
	c.JSON(http.StatusCreated, out)
}

// ListCheckins returns the patient's check-ins from the last ?days (default 30).
func (h *MonitoringHandler) ListCheckins(c *gin.Context) {
	patient, ok := h.patient(c)
	if !ok {
		return
	}
	days, ok := daysParam(c)
	if !ok {
		return
	}
	rows, err := h.store.CheckinsSince(c.Request.Context(), patient.ID, h.now().UTC().AddDate(0, 0, -days))
	if err != nil {
		h.log.Error("Failed to list check-ins", zap.Uint("patientID", patient.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	out := make([]checkinResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newCheckinResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *MonitoringHandler) LatestCheckin(c *gin.Context) {
	patient, ok := h.patient(c)
	if !ok {
		return
	}
	row, err := h.store.LatestCheckin(c.Request.Context(), patient.ID)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, MsgNoCheckins)
		return
	}
	if err != nil {
		h.log.Error("Failed to load latest check-in", zap.Uint("patientID", patient.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	c.JSON(http.StatusOK, newCheckinResponse(row))
}

type crisisResponse struct {
	ID                 uint                 `json:"id"`
	PatientID          uint                 `json:"patient_id"`
	Status             string               `json:"status"`
	RiskScore          *float64             `json:"risk_score"`
	RiskLevel          *string              `json:"risk_level"`
	Classification     *risk.Classification `json:"classification"`
	TriggerSignals     []string             `json:"trigger_signals"`
	PreventionSteps    []string             `json:"prevention_steps"`
	OccurredAt         *time.Time           `json:"occurred_at"`
	DurationMinutes    *int                 `json:"duration_minutes"`
	TriggerDescription string               `json:"trigger_description"`
	DeEscalationUsed   string               `json:"de_escalation_used"`
	ResolvedAt         *time.Time           `json:"resolved_at"`
	Notes              string               `json:"notes"`
	CreatedAt          time.Time            `json:"created_at"`
}

func newCrisisResponse(e *models.CrisisEvent) crisisResponse {
	out := crisisResponse{
		ID:                 e.ID,
		PatientID:          e.PatientID,
		Status:             e.Status,
		RiskScore:          e.RiskScore,
		TriggerSignals:     parseList(e.TriggerSignalsJSON),
		PreventionSteps:    parseList(e.PreventionStepsJSON),
		OccurredAt:         e.OccurredAt,
		DurationMinutes:    e.DurationMinutes,
		TriggerDescription: e.TriggerDescription,
		DeEscalationUsed:   e.DeEscalationUsed,
		ResolvedAt:         e.ResolvedAt,
		Notes:              e.Notes,
		CreatedAt:          e.CreatedAt,
	}
	if e.RiskLevel != "" {
		level := e.RiskLevel
		out.RiskLevel = &level
	}
	if e.RiskScore != nil {
		class := risk.Classify(*e.RiskScore, risk.Fraction)
		out.Classification = &class
	}
	return out
}

// ListCrisisEvents returns the patient's crisis events, newest first.
func (h *MonitoringHandler) ListCrisisEvents(c *gin.Context) {
	patient, ok := h.patient(c)
	if !ok {
		return
	}
	rows, err := h.store.ListCrisisEvents(c.Request.Context(), patient.ID)
	if err != nil {
		h.log.Error("Failed to list crisis events", zap.Uint("patientID", patient.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	out := make([]crisisResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newCrisisResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, out)
}

type logCrisisRequest struct {
	OccurredAt         *time.Time `json:"occurred_at"`
	DurationMinutes    *int       `json:"duration_minutes" binding:"omitempty,gte=0"`
	TriggerDescription string     `json:"trigger_description"`
	DeEscalationUsed   string     `json:"de_escalation_used"`
	Notes              string     `json:"notes"`
}

// LogCrisis records an episode that already happened.
func (h *MonitoringHandler) LogCrisis(c *gin.Context) {
	patient, ok := h.patient(c)
	if !ok {
		return
	}
	var req logCrisisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	now := h.now().UTC()
	occurred := now
	if req.OccurredAt != nil {
		occurred = req.OccurredAt.UTC()
	}
	event := &models.CrisisEvent{
		PatientID:          patient.ID,
		Status:             models.CrisisOccurred,
		OccurredAt:         &occurred,
		DurationMinutes:    req.DurationMinutes,
		TriggerDescription: req.TriggerDescription,
		DeEscalationUsed:   req.DeEscalationUsed,
		Notes:              req.Notes,
		CreatedAt:          now,
	}
	if err := h.store.CreateCrisisEvent(c.Request.Context(), event); err != nil {
		h.log.Error("Failed to log crisis", zap.Uint("patientID", patient.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	c.JSON(http.StatusCreated, newCrisisResponse(event))
}

type resolveCrisisRequest struct {
	Notes string `json:"notes"`
}

// ResolveCrisis closes a crisis event. The body is optional.
func (h *MonitoringHandler) ResolveCrisis(c *gin.Context) {
	id, ok := uintParam(c, "event_id")
	if !ok {
		return
	}
	var req resolveCrisisRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, MsgInvalidRequest)
			return
		}
	}
	user := session.Gate(c).Current()
	event, err := h.store.ResolveCrisisEvent(c.Request.Context(), id, user.UserID, req.Notes, h.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, MsgCrisisNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to resolve crisis", zap.Uint("eventID", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	h.log.Info("Crisis resolved", zap.Uint("eventID", id), zap.Uint("by", user.UserID))
	c.JSON(http.StatusOK, newCrisisResponse(event))
}

type trendResponse struct {
	PatientID           uint     `json:"patient_id"`
	PeriodDays          int      `json:"period_days"`
	AvgSleepHours       *float64 `json:"avg_sleep_hours"`
	AvgCommunication    *float64 `json:"avg_communication"`
	AvgMeltdowns        *float64 `json:"avg_meltdowns"`
	AvgDayRating        *float64 `json:"avg_day_rating"`
	AvgCrisisRisk       *float64 `json:"avg_crisis_risk"`
	TherapyAdherencePct *float64 `json:"therapy_adherence_pct"`
	TotalCrisisEvents   int64    `json:"total_crisis_events"`
	CheckinCount        int      `json:"checkin_count"`
}

// Trends summarises the patient's check-ins over the last ?days (default 30).
func (h *MonitoringHandler) Trends(c *gin.Context) {
	patient, ok := h.patient(c)
	if !ok {
		return
	}
	days, ok := daysParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	since := h.now().UTC().AddDate(0, 0, -days)
	rows, err := h.store.CheckinsSince(ctx, patient.ID, since)
	if err != nil {
		h.log.Error("Failed to load check-ins for trends", zap.Uint("patientID", patient.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	events, err := h.store.CountCrisisEventsSince(ctx, patient.ID, since)
	if err != nil {
		h.log.Error("Failed to count crisis events", zap.Uint("patientID", patient.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	c.JSON(http.StatusOK, summarise(patient.ID, days, rows, events))
}

func summarise(patientID uint, days int, rows []models.DailyCheckin, events int64) trendResponse {
	var sleep, comm, meltdowns, rating, crisis, therapy []float64
	for _, r := range rows {
		if r.SleepHours != nil {
			sleep = append(sleep, *r.SleepHours)
		}
		if r.CommunicationAttempts != nil {
			comm = append(comm, float64(*r.CommunicationAttempts))
		}
		if r.Meltdowns != nil {
			meltdowns = append(meltdowns, float64(*r.Meltdowns))
		}
		if r.OverallDayRating != nil {
			rating = append(rating, float64(*r.OverallDayRating))
		}
		crisis = append(crisis, r.CrisisRiskScore)
		if r.TherapyCompleted {
			therapy = append(therapy, 1)
		} else {
			therapy = append(therapy, 0)
		}
	}
	out := trendResponse{
		PatientID:         patientID,
		PeriodDays:        days,
		AvgSleepHours:     mean(sleep),
		AvgCommunication:  mean(comm),
		AvgMeltdowns:      mean(meltdowns),
		AvgDayRating:      mean(rating),
		AvgCrisisRisk:     mean(crisis),
		TotalCrisisEvents: events,
		CheckinCount:      len(rows),
	}
	if m := mean(therapy); m != nil {
		pct := math.Round(*m*1000) / 10
		out.TherapyAdherencePct = &pct
	}
	return out
}

// mean rounds to two decimals; nil for no values.
func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	m := math.Round(sum/float64(len(xs))*100) / 100
	return &m
}

func (h *MonitoringHandler) patient(c *gin.Context) (*models.Patient, bool) {
	id, ok := uintParam(c, "patient_id")
	if !ok {
		return nil, false
	}
	return accessPatient(c, h.log, h.patients, id)
}

func daysParam(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return defaultTrendDays, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return 0, false
	}
	return min(n, maxTrendDays), true
}

func jsonList(xs []string) string {
	if xs == nil {
		xs = []string{}
	}
	b, _ := json.Marshal(xs)
	return string(b)
}

func parseList(s string) []string {
	out := []string{}
	if s != "" {
		_ = json.Unmarshal([]byte(s), &out)
	}
	return out
}

func valueOrZero(p *int) *int {
	if p != nil {
		return p
	}
	zero := 0
	return &zero
}
