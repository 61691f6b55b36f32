package handler

import (
	"net/http"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/academie/admission-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// QuizHandler exposes the attempt engine over HTTP.
type QuizHandler struct {
	attemptService *service.QuizAttemptService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(attemptService *service.QuizAttemptService) *QuizHandler {
	return &QuizHandler{attemptService: attemptService}
}

// Start godoc
// POST /api/v1/candidate/quizzes/:quiz_id/start
// Opens the attempt or resumes the one in progress.
func (h *QuizHandler) Start(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	var req model.StartQuizRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	start, err := h.attemptService.StartOrResume(c.Request.Context(), p, p.ID, quizID, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	status := http.StatusCreated
	if start.Resumed {
		status = http.StatusOK
	}
	response.Success(c, status, start)
}

// GetProgress godoc
// GET /api/v1/candidate/quizzes/:quiz_id/progress
// Covers page reloads: returns saved answers and the adjusted time left.
func (h *QuizHandler) GetProgress(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	progress, err := h.attemptService.GetProgress(c.Request.Context(), p, p.ID, quizID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// SaveProgress godoc
// PUT /api/v1/candidate/quizzes/:quiz_id/progress
func (h *QuizHandler) SaveProgress(c *gin.Context) {
	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.saveProgress(c, req)
}

// SaveProgressBeacon godoc
// POST /api/v1/candidate/quizzes/:quiz_id/progress/beacon
// Same as SaveProgress for navigator.sendBeacon, which posts text/plain.
func (h *QuizHandler) SaveProgressBeacon(c *gin.Context) {
	var req model.SaveProgressRequest
	if fields := validator.BindBeacon(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.saveProgress(c, req)
}

func (h *QuizHandler) saveProgress(c *gin.Context, req model.SaveProgressRequest) {
	p, ok := principal(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	progress, err := h.attemptService.SaveProgress(c.Request.Context(), p, p.ID, quizID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// Submit godoc
// POST /api/v1/candidate/quizzes/:quiz_id/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), p, p.ID, quizID, req)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ResetProgress godoc
// DELETE /api/v1/candidate/quizzes/:quiz_id/progress
// Abandons an attempt that has not been submitted.
func (h *QuizHandler) ResetProgress(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	if err := h.attemptService.ResetProgress(c.Request.Context(), p, p.ID, quizID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Progression réinitialisée"})
}

// GetCandidateProgress godoc
// GET /api/v1/staff/candidates/:candidate_id/quizzes/:quiz_id/progress
func (h *QuizHandler) GetCandidateProgress(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	progress, err := h.attemptService.GetProgress(c.Request.Context(), p, candidateID, quizID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// AdminReset godoc
// DELETE /api/v1/staff/candidates/:candidate_id/quizzes/:quiz_id/attempt
// Deletes the attempt even when completed.
func (h *QuizHandler) AdminReset(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	candidateID, ok := uuidParam(c, "candidate_id")
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	if err := h.attemptService.AdminReset(c.Request.Context(), p, candidateID, quizID); err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Tentative supprimée"})
}
