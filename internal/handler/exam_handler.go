package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/response"
	"github.com/qbank/exam-platform/internal/service"
	"github.com/qbank/exam-platform/internal/validator"
)

// ExamHandler handles the exam session lifecycle.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// StartExam godoc
// POST /api/v1/exams
// Opens a session on a paper for the current user.
func (h *ExamHandler) StartExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	paperID, err := uuid.Parse(req.PaperID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.examService.StartExam(c.Request.Context(), paperID, claims.UserID, req.Type)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// GetExam godoc
// GET /api/v1/exams/:id
// Returns the assembled paper in the order this session sees it.
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.examService.GetExam(c.Request.Context(), id, service.Viewer{
		UserID:     claims.UserID,
		CanReadAll: claims.HasPermission(model.PermissionExamsRead),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": view})
}

// SubmitExam godoc
// POST /api/v1/exams/:id/submit
// Submits the final answers and auto-grades the objective questions.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.examService.SubmitExam(c.Request.Context(), id, claims.UserID, req.Answers, req.Flagged)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GradeExam godoc
// POST /api/v1/exams/:id/grade
// Applies manual score overrides and recomputes the session score.
func (h *ExamHandler) GradeExam(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.GradeExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.examService.GradeExam(c.Request.Context(), id, req.Overrides)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ListExams godoc
// GET /api/v1/exams?paper_id=&user_id=
// Graders may filter by any user; everyone else only sees their own sessions.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	page, perPage := pageQuery(c)

	var f model.ExamSessionFilter
	if raw := c.Query("paper_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		f.PaperID = &id
	}
	if claims.HasPermission(model.PermissionExamsRead) {
		if raw := c.Query("user_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
				return
			}
			f.UserID = &id
		}
	} else {
		f.UserID = &claims.UserID
	}

	sessions, pagination, err := h.examService.ListExams(c.Request.Context(), f, page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"sessions": sessions}, pagination)
}

// PaperAnalytics godoc
// GET /api/v1/papers/:id/analytics
func (h *ExamHandler) PaperAnalytics(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	analytics, err := h.examService.PaperAnalytics(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"analytics": analytics})
}
