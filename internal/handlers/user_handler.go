package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type UserHandler struct {
	BaseHandler
	users      services.UserService
	enrollment services.EnrollmentService
}

func NewUserHandler(users services.UserService, enrollment services.EnrollmentService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		users:       users,
		enrollment:  enrollment,
	}
}

// EnrollRequest is the body of the enrollment replace call. course_ids stays
// raw so that a non-list value is reported by the service as a 400.
type EnrollRequest struct {
	CourseIDs json.RawMessage `json:"course_ids"`
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Description Get a paginated list of users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param search query string false "Search by name, username or email"
// @Param role query string false "Filter by role (student, teacher, admin)"
// @Success 200 {object} services.ListResponse[models.User]
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	params := services.UserListParams{
		Pagination: h.parsePagination(c),
		Search:     c.Query("search"),
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		params.Role = &r
	}

	users, err := h.users.List(c.Request.Context(), actorFromContext(c), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := h.users.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser
// @Summary Create user
// @Description Admins create users; the default password applies when none is given
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 409 {object} ErrorResponse "Email or username taken"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating user", "role", req.Role)

	user, err := h.users.Create(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateUser serves both PUT and PATCH; absent fields are left untouched.
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body services.UpdateUserRequest true "Changes"
// @Success 200 {object} models.User
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating user", "user_id", id)

	user, err := h.users.Update(c.Request.Context(), actorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser
// @Summary Delete user
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting user", "user_id", id)

	if err := h.users.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me returns the caller with their profile
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.UpdateMeRequest true "Changes"
// @Success 200 {object} models.User
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateMeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateMe(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Wrong old password or weak new password"
// @Router /users/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Changing password")

	if err := h.users.ChangePassword(c.Request.Context(), actorFromContext(c), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password updated successfully"})
}

// SetEnrollment replaces the student's course set
// @Summary Replace enrollment
// @Description Sets the student's enrolled courses to exactly course_ids; unknown ids are dropped
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body EnrollRequest true "Course ids"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 400 {object} ErrorResponse "course_ids is not a list"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /users/students/{id}/enroll [post]
func (h *UserHandler) SetEnrollment(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}

	var req EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Replacing enrollment", "student_id", studentID)

	resp, err := h.enrollment.SetEnrollment(c.Request.Context(), actorFromContext(c), studentID, req.CourseIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PublicTeachers
// @Summary Public teacher list
// @Tags users
// @Produce json
// @Success 200 {array} services.PublicTeacher
// @Router /public-teachers [get]
func (h *UserHandler) PublicTeachers(c *gin.Context) {
	teachers, err := h.users.ListPublicTeachers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, teachers)
}

// TeacherStudents lists the distinct students across the caller's courses.
// @Summary Teacher's students
// @Tags users
// @Produce json
// @Param search query string false "Search by name or email"
// @Success 200 {array} models.User
// @Router /teacher-students [get]
func (h *UserHandler) TeacherStudents(c *gin.Context) {
	students, err := h.users.TeacherStudents(c.Request.Context(), actorFromContext(c), c.Query("search"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}
