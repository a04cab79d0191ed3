package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/response"
	"github.com/qbank/exam-platform/internal/service"
	"github.com/qbank/exam-platform/internal/validator"
)

// PaperHandler handles paper composition endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// ListPapers godoc
// GET /api/v1/papers
func (h *PaperHandler) ListPapers(c *gin.Context) {
	page, perPage := pageQuery(c)

	papers, pagination, err := h.paperService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"papers": papers}, pagination)
}

// GetPaper godoc
// GET /api/v1/papers/:id
func (h *PaperHandler) GetPaper(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	paper, err := h.paperService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// CreatePaper godoc
// POST /api/v1/papers
// Creates a paper from an ordered item list, or from a flat question id list.
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// GeneratePaper godoc
// POST /api/v1/papers/generate
// Builds a paper by random selection from the question bank.
func (h *PaperHandler) GeneratePaper(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.GeneratePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Generate(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// DeletePaper godoc
// DELETE /api/v1/papers/:id
// Papers referenced by a session cannot be deleted.
func (h *PaperHandler) DeletePaper(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.paperService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "paper deleted"})
}
