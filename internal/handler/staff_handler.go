package handler

import (
	"net/http"
	"strconv"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/academie/admission-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// StaffHandler serves cohort administration: enrollments, interviews,
// validation, finalization and the audit trail.
type StaffHandler struct {
	candidateService *service.CandidateService
	interviewService *service.InterviewService
	auditService     *service.AuditService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(
	candidateService *service.CandidateService,
	interviewService *service.InterviewService,
	auditService *service.AuditService,
) *StaffHandler {
	return &StaffHandler{
		candidateService: candidateService,
		interviewService: interviewService,
		auditService:     auditService,
	}
}

// ListCandidates godoc
// GET /api/v1/staff/sessions/:session_id/candidates
func (h *StaffHandler) ListCandidates(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	candidates, err := h.candidateService.ListBySession(c.Request.Context(), p, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	if candidates == nil {
		candidates = []model.SessionCandidate{}
	}
	response.Success(c, http.StatusOK, gin.H{"candidates": candidates})
}

// RegisterCandidate godoc
// POST /api/v1/staff/sessions/:session_id/candidates
// Enrolls candidate_id on their behalf.
func (h *StaffHandler) RegisterCandidate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	var req model.RegisterCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.CandidateID == nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"candidate_id": "candidate_id est un champ obligatoire"})
		return
	}

	enrollment, err := h.candidateService.Register(c.Request.Context(), p, sessionID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// GetCandidate godoc
// GET /api/v1/staff/sessions/:session_id/candidates/:candidate_id
func (h *StaffHandler) GetCandidate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}

	enrollment, err := h.candidateService.Get(c.Request.Context(), p, sessionID, candidateID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"enrollment": enrollment})
}

// ValidateCandidate godoc
// POST /api/v1/staff/sessions/:session_id/candidates/:candidate_id/validate
func (h *StaffHandler) ValidateCandidate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}

	enrollment, err := h.candidateService.Validate(c.Request.Context(), p, sessionID, candidateID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"enrollment": enrollment})
}

// FinalizeCandidate godoc
// POST /api/v1/staff/sessions/:session_id/candidates/:candidate_id/finalize
// Records PASSED or FAILED from the completed admission quiz.
func (h *StaffHandler) FinalizeCandidate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}

	var req model.FinalizeCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	enrollment, err := h.candidateService.Finalize(c.Request.Context(), p, sessionID, candidateID, req.QuizID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"enrollment": enrollment})
}

// ScheduleInterview godoc
// POST /api/v1/staff/sessions/:session_id/candidates/:candidate_id/interviews
func (h *StaffHandler) ScheduleInterview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}

	var req model.ScheduleInterviewRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	interview, err := h.interviewService.Schedule(c.Request.Context(), p, sessionID, candidateID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"interview": interview})
}

// OpenInterview godoc
// POST /api/v1/staff/sessions/:session_id/candidates/:candidate_id/interviews/open
// Claims the scheduled interview, or opens one on the spot.
func (h *StaffHandler) OpenInterview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}

	interview, err := h.interviewService.Open(c.Request.Context(), p, sessionID, candidateID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": interview})
}

// LatestInterview godoc
// GET /api/v1/staff/sessions/:session_id/candidates/:candidate_id/interview
func (h *StaffHandler) LatestInterview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}

	interview, err := h.interviewService.Latest(c.Request.Context(), p, sessionID, candidateID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": interview})
}

// GetInterview godoc
// GET /api/v1/staff/interviews/:interview_id
func (h *StaffHandler) GetInterview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	interviewID, ok := uuidParam(c, "interview_id")
	if !ok {
		return
	}

	interview, err := h.interviewService.Get(c.Request.Context(), p, interviewID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": interview})
}

// RecordDecision godoc
// POST /api/v1/staff/interviews/:interview_id/decision
func (h *StaffHandler) RecordDecision(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	interviewID, ok := uuidParam(c, "interview_id")
	if !ok {
		return
	}

	var req model.RecordDecisionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	interview, err := h.interviewService.RecordDecision(c.Request.Context(), p, interviewID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": interview})
}

// ListAudit godoc
// GET /api/v1/staff/candidates/:candidate_id/audit?limit=50
func (h *StaffHandler) ListAudit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	events, err := h.auditService.ListByCandidate(c.Request.Context(), p, candidateID, limit)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}
