package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slp-progress-api/internal/models"
	"github.com/noah-isme/slp-progress-api/internal/service"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
	"github.com/noah-isme/slp-progress-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints. Enrollments are created
// exclusively by roster synchronization and reregistration; the handler
// offers views, score updates and the reregistration workflow.
type EnrollmentHandler struct {
	enrollments     *service.EnrollmentService
	grades          *service.GradeService
	reregistrations *service.ReregistrationService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, grades *service.GradeService, reregistrations *service.ReregistrationService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, grades: grades, reregistrations: reregistrations}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param moduleId query string false "Filter by module"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.StudentID = c.Query("studentId")
	filter.ModuleID = c.Query("moduleId")
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// UpdateScores godoc
// @Summary Update enrollment scores
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/scores [patch]
func (h *EnrollmentHandler) UpdateScores(c *gin.Context) {
	var req service.UpdateScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.grades.UpdateScores(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Reregister godoc
// @Summary Reregister an enrollment under a substitute module
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param X-Actor header string true "Acting user"
// @Param payload body service.ReregisterRequest true "Reregistration payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/reregister [post]
func (h *EnrollmentHandler) Reregister(c *gin.Context) {
	var req service.ReregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	replacement, err := h.reregistrations.Reregister(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, replacement)
}
