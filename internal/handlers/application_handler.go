package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ApplicationHandler struct {
	BaseHandler
	service services.ApplicationService
}

func NewApplicationHandler(service services.ApplicationService, logger utils.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateApplication accepts a lead from the public site.
// @Summary Submit application
// @Tags applications
// @Accept json
// @Produce json
// @Param request body services.CreateApplicationRequest true "Application"
// @Success 201 {object} models.Application
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Router /applications [post]
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req services.CreateApplicationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	application, err := h.service.Create(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

// ListApplications
// @Summary List applications
// @Tags applications
// @Produce json
// @Param status query string false "new, contacted, registered or archived"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.ListResponse[models.Application]
// @Router /applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	params := services.ApplicationListParams{
		Pagination: h.parsePagination(c),
		Status:     statusQuery(c),
	}

	applications, err := h.service.List(c.Request.Context(), actorFromContext(c), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

// GetApplication
// @Summary Get application
// @Tags applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Router /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	application, err := h.service.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// UpdateApplication
// @Summary Update application
// @Tags applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param request body services.UpdateApplicationRequest true "Changes"
// @Success 200 {object} models.Application
// @Router /applications/{id} [patch]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateApplicationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating application", "application_id", id)

	application, err := h.service.Update(c.Request.Context(), actorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, application)
}

// DeleteApplication
// @Summary Delete application
// @Tags applications
// @Param id path int true "Application ID"
// @Success 204
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportApplications streams the filtered list as a spreadsheet.
// @Summary Export applications
// @Tags applications
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "new, contacted, registered or archived"
// @Success 200 {file} file
// @Router /applications/export [get]
func (h *ApplicationHandler) ExportApplications(c *gin.Context) {
	h.LogRequest(c, "Exporting applications")

	data, err := h.service.Export(c.Request.Context(), actorFromContext(c), statusQuery(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("applications-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func statusQuery(c *gin.Context) *models.ApplicationStatus {
	status := c.Query("status")
	if status == "" {
		return nil
	}
	s := models.ApplicationStatus(status)
	return &s
}
