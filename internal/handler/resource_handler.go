package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/university-records/pkg/errors"
	"github.com/noah-isme/university-records/pkg/response"
)

// resourceService is the CRUD surface shared by groups, teachers, students
// and subjects.
type resourceService[T, C, U any] interface {
	Create(ctx context.Context, req C) (*T, error)
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id int64, req U) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// ResourceHandler serves the CRUD endpoints of one entity.
type ResourceHandler[T, C, U any] struct {
	service resourceService[T, C, U]
}

// NewResourceHandler constructs a CRUD handler over svc.
func NewResourceHandler[T, C, U any](svc resourceService[T, C, U]) *ResourceHandler[T, C, U] {
	return &ResourceHandler[T, C, U]{service: svc}
}

// List returns every record ordered by id.
func (h *ResourceHandler[T, C, U]) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// Get returns a single record.
func (h *ResourceHandler[T, C, U]) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create stores a new record.
func (h *ResourceHandler[T, C, U]) Create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update applies a partial update.
func (h *ResourceHandler[T, C, U]) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req U
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete removes a record.
func (h *ResourceHandler[T, C, U]) Delete(c *gin.Context) {
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
func (h *ResourceHandler[T, C, U]) Register(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// pathID parses a positive integer path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
