package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// AdminSummary returns school-wide counts and the newest applications
// @Summary Admin dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.AdminDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /admin-dashboard-summary [get]
func (h *DashboardHandler) AdminSummary(c *gin.Context) {
	h.LogRequest(c, "Getting admin dashboard")

	summary, err := h.service.Admin(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// StudentSummary returns the caller's enrolled course count and next lessons
// @Summary Student dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.StudentDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /student-dashboard-summary [get]
func (h *DashboardHandler) StudentSummary(c *gin.Context) {
	summary, err := h.service.Student(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// TeacherSummary returns the caller's course count and distinct students
// @Summary Teacher dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.TeacherDashboard
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /teacher-dashboard-summary [get]
func (h *DashboardHandler) TeacherSummary(c *gin.Context) {
	summary, err := h.service.Teacher(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
