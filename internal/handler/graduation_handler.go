package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slp-progress-api/internal/service"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
	"github.com/noah-isme/slp-progress-api/pkg/response"
)

// GraduationHandler exposes graduation flag and reconciliation endpoints.
type GraduationHandler struct {
	graduations *service.GraduationService
	reconciler  *service.ReconcileService
	grades      *service.GradeService
}

// NewGraduationHandler constructs GraduationHandler.
func NewGraduationHandler(graduations *service.GraduationService, reconciler *service.ReconcileService, grades *service.GradeService) *GraduationHandler {
	return &GraduationHandler{graduations: graduations, reconciler: reconciler, grades: grades}
}

// List godoc
// @Summary List graduation flags
// @Tags Graduation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /graduation/flags [get]
func (h *GraduationHandler) List(c *gin.Context) {
	flags, err := h.graduations.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, flags, nil)
}

// Reconcile godoc
// @Summary Sweep all students and reconcile graduation flags
// @Tags Graduation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /graduation/reconcile [post]
func (h *GraduationHandler) Reconcile(c *gin.Context) {
	results, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ReconcileStudent godoc
// @Summary Reconcile the graduation flag for one student
// @Tags Graduation
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /graduation/reconcile/{studentId} [post]
func (h *GraduationHandler) ReconcileStudent(c *gin.Context) {
	result, err := h.reconciler.ReconcileStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Check godoc
// @Summary Check whether a student has passed every required module
// @Tags Graduation
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /graduation/check/{studentId} [get]
func (h *GraduationHandler) Check(c *gin.Context) {
	passed, err := h.grades.HasPassedAllModules(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"passed": passed}, nil)
}

type transcriptRequest struct {
	Requested bool `json:"requested"`
}

// SetTranscript godoc
// @Summary Toggle the transcript-requested marker on a graduation flag
// @Tags Graduation
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body transcriptRequest true "Transcript payload"
// @Success 204
// @Router /graduation/flags/{studentId}/transcript [put]
func (h *GraduationHandler) SetTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.graduations.SetTranscriptRequested(c.Request.Context(), c.Param("studentId"), req.Requested); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
