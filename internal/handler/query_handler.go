package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/university-records/internal/service"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
	"github.com/noah-isme/university-records/pkg/export"
	"github.com/noah-isme/university-records/pkg/response"
)

type queryRunner interface {
	Run(ctx context.Context, number int, params service.QueryParams) (*service.QueryResult, error)
}

var contentTypes = map[string]string{
	export.FormatTable: "text/plain; charset=utf-8",
	export.FormatCSV:   "text/csv",
	export.FormatPDF:   "application/pdf",
}

// QueryHandler exposes the numbered analytical queries.
type QueryHandler struct {
	queries queryRunner
}

// NewQueryHandler constructs a query handler.
func NewQueryHandler(queries queryRunner) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// Register mounts one route per query under rg. Path parameters are named
// after the query parameters they fill.
func (h *QueryHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/top-students", h.run(1))
	rg.GET("/subjects/:subject_id/top-student", h.run(2))
	rg.GET("/subjects/:subject_id/group-averages", h.run(3))
	rg.GET("/average", h.run(4))
	rg.GET("/teachers/:teacher_id/subjects", h.run(5))
	rg.GET("/groups/:group_id/students", h.run(6))
	rg.GET("/groups/:group_id/subjects/:subject_id/grades", h.run(7))
	rg.GET("/teachers/:teacher_id/average", h.run(8))
	rg.GET("/students/:student_id/subjects", h.run(9))
	rg.GET("/students/:student_id/teachers/:teacher_id/subjects", h.run(10))
	rg.GET("/students/:student_id/teachers/:teacher_id/average", h.run(11))
	rg.GET("/groups/:group_id/subjects/:subject_id/latest-grades", h.run(12))
	rg.GET("/by-number/:number", h.byNumber)
}

// byNumber runs a query given its number and ?student_id= style parameters.
func (h *QueryHandler) byNumber(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query number must be an integer"))
		return
	}
	var params service.QueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	h.respond(c, number, params)
}

func (h *QueryHandler) run(number int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params service.QueryParams
		for _, p := range []struct {
			name   string
			target *int64
		}{
			{service.ParamStudentID, &params.StudentID},
			{service.ParamSubjectID, &params.SubjectID},
			{service.ParamGroupID, &params.GroupID},
			{service.ParamTeacherID, &params.TeacherID},
		} {
			if c.Param(p.name) == "" {
				continue
			}
			id, ok := pathID(c, p.name)
			if !ok {
				return
			}
			*p.target = id
		}
		h.respond(c, number, params)
	}
}

func (h *QueryHandler) respond(c *gin.Context, number int, params service.QueryParams) {
	result, err := h.queries.Run(c.Request.Context(), number, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", export.FormatJSON)
	if format == export.FormatJSON {
		response.JSON(c, http.StatusOK, result.Rows, map[string]interface{}{"query": result.Number, "title": result.Title})
		return
	}
	renderer, err := export.ForFormat(format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	body, err := renderer.Render(result.Dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, contentTypes[format], fmt.Sprintf("query-%d.%s", result.Number, extension(format)), body)
}

func extension(format string) string {
	if format == export.FormatTable {
		return "txt"
	}
	return format
}

func parsePositive(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%d is not positive", id)
	}
	return id, nil
}
