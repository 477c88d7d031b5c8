package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"neurothrive/internal/interventions"
	"neurothrive/internal/models"
	"neurothrive/internal/repository"
	"neurothrive/internal/session"
	"neurothrive/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InterventionHandler struct {
	log   *zap.Logger
	plans *repository.InterventionRepository
}

func NewInterventionHandler(log *zap.Logger, plans *repository.InterventionRepository) *InterventionHandler {
	return &InterventionHandler{log: log, plans: plans}
}

type generateRequest struct {
	interventions.Features
	ProtoPatientID any    `json:"proto_patient_id,omitempty"`
	PatientName    string `json:"patient_name,omitempty"`
}

// Generate returns plans A, B and C. When proto_patient_id is given the plans
// also replace that patient's active plans.
func (h *InterventionHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if r := req.RiskScore; r != nil && (math.IsNaN(*r) || math.IsInf(*r, 0)) {
		respondError(c, http.StatusBadRequest, MsgInvalidScore)
		return
	}

	plans := interventions.Generate(req.Features)

	if req.ProtoPatientID != nil {
		if err := h.persist(c, req, plans); err != nil {
			h.log.Error("Failed to save intervention plans", zap.Error(err))
			respondError(c, http.StatusInternalServerError, MsgInternal)
			return
		}
	}

	c.JSON(http.StatusOK, plans)
}

func (h *InterventionHandler) persist(c *gin.Context, req generateRequest, plans []interventions.Plan) error {
	features, err := json.Marshal(req.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	var createdBy *uint
	if cur := session.Gate(c).Current(); cur != nil && cur.UserID != 0 {
		id := cur.UserID
		createdBy = &id
	}

	patientRef := utils.HashIdentifier(fmt.Sprintf("proto:%v", req.ProtoPatientID))
	rows := make([]models.InterventionPlan, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, models.InterventionPlan{
			PatientRef:           patientRef,
			CreatedBy:            createdBy,
			PlanOption:           p.Key,
			PlanName:             p.Name,
			InputFeaturesJSON:    string(features),
			Frequency:            p.Frequency,
			MilestoneProbability: p.MilestoneProbability,
			TimeEstimate:         p.TimeEstimate,
			EstimatedCost:        p.CostEstimate,
			Reasoning:            p.Description,
			Accepted:             p.Recommended,
			IsActive:             true,
		})
	}
	if err := h.plans.ReplaceActivePlans(c.Request.Context(), patientRef, rows); err != nil {
		return err
	}
	h.log.Info("Intervention plans saved", zap.String("patientRef", patientRef), zap.Int("plans", len(rows)))
	return nil
}

type planResponse struct {
	ID                   uint       `json:"id"`
	PatientRef           string     `json:"patient_ref"`
	PlanOption           string     `json:"plan_option"`
	PlanName             string     `json:"plan_name"`
	Frequency            string     `json:"frequency"`
	MilestoneProbability int        `json:"milestone_probability"`
	TimeEstimate         string     `json:"time_estimate"`
	EstimatedCost        float64    `json:"estimated_cost"`
	Reasoning            string     `json:"reasoning"`
	Accepted             bool       `json:"accepted"`
	ClinicianNotes       string     `json:"clinician_notes"`
	ReviewedBy           *uint      `json:"reviewed_by"`
	ReviewedAt           *time.Time `json:"reviewed_at"`
	IsActive             bool       `json:"is_active"`
	CreatedAt            time.Time  `json:"created_at"`
}

func newPlanResponse(p *models.InterventionPlan) planResponse {
	return planResponse{
		ID:                   p.ID,
		PatientRef:           p.PatientRef,
		PlanOption:           p.PlanOption,
		PlanName:             p.PlanName,
		Frequency:            p.Frequency,
		MilestoneProbability: p.MilestoneProbability,
		TimeEstimate:         p.TimeEstimate,
		EstimatedCost:        p.EstimatedCost,
		Reasoning:            p.Reasoning,
		Accepted:             p.Accepted,
		ClinicianNotes:       p.ClinicianNotes,
		ReviewedBy:           p.ReviewedBy,
		ReviewedAt:           p.ReviewedAt,
		IsActive:             p.IsActive,
		CreatedAt:            p.CreatedAt,
	}
}

// List returns the active plans saved for a prototype patient id.
func (h *InterventionHandler) List(c *gin.Context) {
	ref := utils.HashIdentifier("proto:" + c.Param("proto_patient_id"))
	plans, err := h.plans.ActivePlans(c.Request.Context(), ref)
	if err != nil {
		h.log.Error("Failed to list intervention plans", zap.String("patientRef", ref), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for i := range plans {
		out = append(out, newPlanResponse(&plans[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterventionHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "plan_id")
	if !ok {
		return
	}
	plan, err := h.plans.GetPlan(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, MsgPlanNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to load intervention plan", zap.Uint("planID", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	c.JSON(http.StatusOK, newPlanResponse(plan))
}

type reviewRequest struct {
	ClinicianNotes string `json:"clinician_notes"`
}

// Accept marks a plan accepted and rejects the patient's other active plans.
func (h *InterventionHandler) Accept(c *gin.Context) { h.review(c, true) }

// Reject marks a plan rejected.
func (h *InterventionHandler) Reject(c *gin.Context) { h.review(c, false) }

func (h *InterventionHandler) review(c *gin.Context, accept bool) {
	id, ok := uintParam(c, "plan_id")
	if !ok {
		return
	}
	var req reviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, MsgInvalidRequest)
			return
		}
	}
	reviewer := session.Gate(c).Current().UserID
	plan, err := h.plans.ReviewPlan(c.Request.Context(), id, accept, reviewer, req.ClinicianNotes, time.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, MsgPlanNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to review intervention plan", zap.Uint("planID", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	h.log.Info("Intervention plan reviewed", zap.Uint("planID", id), zap.Bool("accepted", accept), zap.Uint("by", reviewer))
	c.JSON(http.StatusOK, newPlanResponse(plan))
}
