package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/service"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
	"github.com/noah-isme/university-records/pkg/response"
)

type gradeService interface {
	Create(ctx context.Context, req service.CreateGradeRequest) (*models.Grade, error)
	Get(ctx context.Context, id int64) (*models.Grade, error)
	List(ctx context.Context) ([]models.Grade, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Grade, error)
	Update(ctx context.Context, id int64, req service.UpdateGradeRequest) (*models.Grade, error)
	Delete(ctx context.Context, id int64) error
}

// GradeHandler handles grade endpoints. Grades cannot be modified.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(svc gradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// List returns grades, optionally narrowed with ?student_id=.
func (h *GradeHandler) List(c *gin.Context) {
	var (
		grades []models.Grade
		err    error
	)
	if c.Query("student_id") != "" {
		var studentID int64
		studentID, err = parsePositive(c.Query("student_id"))
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id must be a positive integer"))
			return
		}
		grades, err = h.service.ListByStudent(c.Request.Context(), studentID)
	} else {
		grades, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, grades, len(grades))
}

// Get returns a single grade.
func (h *GradeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	grade, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Create records a grade.
func (h *GradeHandler) Create(c *gin.Context) {
	var req service.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update forwards to the service, which refuses with USAGE_ERROR. The body
// is not read.
func (h *GradeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	grade, err := h.service.Update(c.Request.Context(), id, service.UpdateGradeRequest{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Delete removes a grade.
func (h *GradeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Register mounts the handler under rg.
func (h *GradeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
