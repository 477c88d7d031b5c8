package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"neurothrive/internal/auth"
	"neurothrive/internal/models"
	"neurothrive/internal/repository"
	"neurothrive/internal/session"
	"neurothrive/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PatientHandler struct {
	log      *zap.Logger
	patients *repository.PatientRepository
}

func NewPatientHandler(log *zap.Logger, patients *repository.PatientRepository) *PatientHandler {
	return &PatientHandler{log: log, patients: patients}
}

type createPatientRequest struct {
	ChildID      string          `json:"child_id" binding:"required,notblank"`
	ParentUserID *uint           `json:"parent_user_id"`
	Metadata     json.RawMessage `json:"metadata"`
}

type patientResponse struct {
	ID           uint            `json:"id"`
	ChildRef     string          `json:"child_ref"`
	ParentUserID *uint           `json:"parent_user_id"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newPatientResponse(p *models.Patient) patientResponse {
	meta := json.RawMessage(p.MetadataJSON)
	if !json.Valid(meta) {
		meta = json.RawMessage("{}")
	}
	return patientResponse{ID: p.ID, ChildRef: p.ChildRef, ParentUserID: p.ParentUserID, Metadata: meta, CreatedAt: p.CreatedAt}
}

// Create registers a child. Only the hash of child_id is stored. A parent
// always becomes the owner; clinicians and admins may name one.
func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	user := session.Gate(c).Current()
	owner := req.ParentUserID
	if user.Role == auth.RoleParent {
		id := user.UserID
		owner = &id
	}

	p := &models.Patient{
		ChildRef:     utils.HashIdentifier(strings.TrimSpace(req.ChildID)),
		ParentUserID: owner,
		MetadataJSON: string(req.Metadata),
	}
	err := h.patients.CreatePatient(c.Request.Context(), p)
	if errors.Is(err, repository.ErrPatientExists) {
		respondError(c, http.StatusConflict, MsgPatientExists)
		return
	}
	if err != nil {
		h.log.Error("Failed to create patient", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	h.log.Info("Patient created", zap.Uint("patientID", p.ID), zap.Uint("by", user.UserID))
	c.JSON(http.StatusCreated, newPatientResponse(p))
}

// List returns the caller's own children for parents and every patient for
// everyone else.
func (h *PatientHandler) List(c *gin.Context) {
	user := session.Gate(c).Current()
	var owner *uint
	if user.Role == auth.RoleParent {
		owner = &user.UserID
	}
	patients, err := h.patients.ListPatients(c.Request.Context(), owner)
	if err != nil {
		h.log.Error("Failed to list patients", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	out := make([]patientResponse, 0, len(patients))
	for i := range patients {
		out = append(out, newPatientResponse(&patients[i]))
	}
	c.JSON(http.StatusOK, out)
}

// accessPatient loads the patient and aborts with 404 or 403 unless the caller
// may see it. Parents only see their own children.
func accessPatient(c *gin.Context, log *zap.Logger, patients *repository.PatientRepository, id uint) (*models.Patient, bool) {
	p, err := patients.GetPatient(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, MsgPatientNotFound)
		return nil, false
	}
	if err != nil {
		log.Error("Failed to load patient", zap.Uint("patientID", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return nil, false
	}
	user := session.Gate(c).Current()
	if user.Role == auth.RoleParent && (p.ParentUserID == nil || *p.ParentUserID != user.UserID) {
		respondError(c, http.StatusForbidden, MsgPatientAccess)
		return nil, false
	}
	return p, true
}

// uintParam parses a positive integer path parameter, aborting with 400 otherwise.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return 0, false
	}
	return uint(v), true
}
