package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/response"
	"github.com/qbank/exam-platform/internal/service"
	"github.com/qbank/exam-platform/internal/validator"
)

// QuestionHandler handles question bank and review endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListQuestions godoc
// GET /api/v1/questions?type=&status=&difficulty=&knowledge_point=&q=
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, perPage := pageQuery(c)
	f := model.QuestionFilter{
		Type:             model.QuestionType(c.Query("type")),
		Status:           model.QuestionStatus(c.Query("status")),
		Difficulty:       model.Difficulty(c.Query("difficulty")),
		KnowledgePointID: c.Query("knowledge_point"),
		Search:           c.Query("q"),
	}

	questions, pagination, err := h.questionService.List(c.Request.Context(), f, page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// ListPending godoc
// GET /api/v1/questions/pending
// Lists questions waiting for review.
func (h *QuestionHandler) ListPending(c *gin.Context) {
	page, perPage := pageQuery(c)

	questions, pagination, err := h.questionService.ListPending(c.Request.Context(), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// GetQuestion godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	q, err := h.questionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// CreateQuestion godoc
// POST /api/v1/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.UpsertQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PUT /api/v1/questions/:id
// Replaces the content of a question. Approved or pending questions go back to draft.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var req model.UpsertQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// SubmitForReview godoc
// POST /api/v1/questions/:id/submit
func (h *QuestionHandler) SubmitForReview(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	q, err := h.questionService.Submit(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Approve godoc
// POST /api/v1/questions/:id/approve
func (h *QuestionHandler) Approve(c *gin.Context) {
	h.review(c, h.questionService.Approve)
}

// Reject godoc
// POST /api/v1/questions/:id/reject
func (h *QuestionHandler) Reject(c *gin.Context) {
	h.review(c, h.questionService.Reject)
}

func (h *QuestionHandler) review(c *gin.Context, decide func(ctx context.Context, id string, reviewer uuid.UUID, notes string) (*model.Question, error)) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.ReviewRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	q, err := decide(c.Request.Context(), c.Param("id"), claims.UserID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// ReviewHistory godoc
// GET /api/v1/questions/:id/reviews
func (h *QuestionHandler) ReviewHistory(c *gin.Context) {
	reviews, err := h.questionService.ReviewHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reviews": reviews})
}

// VersionHistory godoc
// GET /api/v1/questions/:id/versions
func (h *QuestionHandler) VersionHistory(c *gin.Context) {
	versions, err := h.questionService.VersionHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"versions": versions})
}
