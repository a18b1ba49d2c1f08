package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-records/internal/dto"
	"github.com/noah-isme/student-records/internal/middleware"
	"github.com/noah-isme/student-records/internal/models"
	"github.com/noah-isme/student-records/internal/service"
	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]dto.StudentResponse, bool, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, bool, error)
	Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
}

type rosterExporter interface {
	Roster(ctx context.Context, format string, filter models.StudentFilter) (*service.ExportFile, error)
}

// StudentHandler manages student endpoints.
type StudentHandler struct {
	service  studentService
	exporter rosterExporter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(svc studentService, exporter rosterExporter) *StudentHandler {
	return &StudentHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email contains"
// @Param status query string false "Active, Inactive, Graduated or Suspended"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, cacheHit, err := h.service.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["count"] = len(students)
	response.JSON(c, http.StatusOK, students, meta)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, cacheHit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, student, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update student profile
// @Description Partial update; omitted fields are left unchanged. department is accepted as an alias of major.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteStudentResponse{Message: "Student deleted successfully"})
}

// Export godoc
// @Summary Download the student roster
// @Tags Students
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /student/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	file, err := h.exporter.Roster(c.Request.Context(), c.DefaultQuery("format", "csv"), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

func filterFromQuery(c *gin.Context) models.StudentFilter {
	return models.StudentFilter{
		Search: c.Query("search"),
		Status: models.StudentStatus(c.Query("status")),
	}
}
