package handler

import (
	"net/http"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/academie/admission-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// CandidateHandler serves the candidate's own enrollment endpoints.
type CandidateHandler struct {
	candidateService *service.CandidateService
	interviewService *service.InterviewService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(
	candidateService *service.CandidateService,
	interviewService *service.InterviewService,
) *CandidateHandler {
	return &CandidateHandler{
		candidateService: candidateService,
		interviewService: interviewService,
	}
}

// Register godoc
// POST /api/v1/candidate/sessions/:session_id/registration
// Enrolls the caller into the cohort. The body is optional.
func (h *CandidateHandler) Register(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	var req model.RegisterCandidateRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	enrollment, err := h.candidateService.Register(c.Request.Context(), p, sessionID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// Unregister godoc
// DELETE /api/v1/candidate/sessions/:session_id/registration
func (h *CandidateHandler) Unregister(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	if err := h.candidateService.Unregister(c.Request.Context(), p, sessionID, p.ID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Inscription annulée"})
}

// GetEnrollment godoc
// GET /api/v1/candidate/sessions/:session_id/registration
func (h *CandidateHandler) GetEnrollment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	enrollment, err := h.candidateService.Get(c.Request.Context(), p, sessionID, p.ID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"enrollment": enrollment})
}

// GetInterview godoc
// GET /api/v1/candidate/sessions/:session_id/interview
// Returns the latest interview of the caller in this cohort.
func (h *CandidateHandler) GetInterview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	interview, err := h.interviewService.Latest(c.Request.Context(), p, sessionID, p.ID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": interview})
}
