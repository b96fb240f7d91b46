package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slp-progress-api/internal/service"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
	"github.com/noah-isme/slp-progress-api/pkg/response"
)

// CurriculumHandler exposes curriculum endpoints.
type CurriculumHandler struct {
	curricula *service.CurriculumService
}

// NewCurriculumHandler constructs CurriculumHandler.
func NewCurriculumHandler(curricula *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curricula: curricula}
}

// List godoc
// @Summary List curricula
// @Tags Curricula
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /curricula [get]
func (h *CurriculumHandler) List(c *gin.Context) {
	curricula, err := h.curricula.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curricula, nil)
}

// Get godoc
// @Summary Get curriculum detail
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id} [get]
func (h *CurriculumHandler) Get(c *gin.Context) {
	curriculum, err := h.curricula.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curriculum, nil)
}

// Create godoc
// @Summary Create curriculum
// @Tags Curricula
// @Accept json
// @Produce json
// @Param payload body service.CreateCurriculumRequest true "Curriculum payload"
// @Success 201 {object} response.Envelope
// @Router /curricula [post]
func (h *CurriculumHandler) Create(c *gin.Context) {
	var req service.CreateCurriculumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	curriculum, err := h.curricula.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, curriculum)
}

// Update godoc
// @Summary Update curriculum
// @Tags Curricula
// @Accept json
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param payload body service.UpdateCurriculumRequest true "Curriculum payload"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id} [put]
func (h *CurriculumHandler) Update(c *gin.Context) {
	var req service.UpdateCurriculumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	curriculum, err := h.curricula.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curriculum, nil)
}

// Delete godoc
// @Summary Delete a curriculum without assigned students
// @Tags Curricula
// @Param id path string true "Curriculum ID"
// @Success 204
// @Router /curricula/{id} [delete]
func (h *CurriculumHandler) Delete(c *gin.Context) {
	if err := h.curricula.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Modules godoc
// @Summary List module IDs required by a curriculum
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id}/modules [get]
func (h *CurriculumHandler) Modules(c *gin.Context) {
	ids, err := h.curricula.ModuleIDs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// LinkModule godoc
// @Summary Attach a module to a curriculum and re-sync assigned students
// @Tags Curricula
// @Accept json
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param payload body service.LinkModuleRequest true "Link payload"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id}/modules [post]
func (h *CurriculumHandler) LinkModule(c *gin.Context) {
	var req service.LinkModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	failures, err := h.curricula.LinkModule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sync_failures": failures}, nil)
}

// UnlinkModule godoc
// @Summary Detach a module from a curriculum and re-sync assigned students
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param moduleId path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id}/modules/{moduleId} [delete]
func (h *CurriculumHandler) UnlinkModule(c *gin.Context) {
	failures, err := h.curricula.UnlinkModule(c.Request.Context(), c.Param("id"), c.Param("moduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sync_failures": failures}, nil)
}
