package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courses services.CourseService
	lessons services.LessonService
}

func NewCourseHandler(courses services.CourseService, lessons services.LessonService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler: NewBaseHandler(logger),
		courses:     courses,
		lessons:     lessons,
	}
}

// ListCourses
// @Summary List courses
// @Description Public catalog. search matches title, subject and the teacher's name
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param search query string false "Search text"
// @Param sort_by query string false "title, price or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} services.ListResponse[models.Course]
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	params := services.CourseListParams{
		Pagination: h.parsePagination(c),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	courses, err := h.courses.List(c.Request.Context(), actorFromContext(c), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetCourse
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	course, err := h.courses.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// CreateCourse
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param request body services.CreateCourseRequest true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating course", "title", req.Title)

	course, err := h.courses.Create(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// UpdateCourse
// @Summary Update course
// @Description Admins may change any field; the owning teacher may not reassign the course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body services.UpdateCourseRequest true "Changes"
// @Success 200 {object} models.Course
// @Router /courses/{id} [patch]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	course, err := h.courses.Update(c.Request.Context(), actorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes the course with its lessons and enrollments.
// @Summary Delete course
// @Tags courses
// @Param id path int true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", id)

	if err := h.courses.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MyCourses
// @Summary Caller's courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /courses/my [get]
func (h *CourseHandler) MyCourses(c *gin.Context) {
	courses, err := h.courses.My(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// UpcomingLessons
// @Summary Upcoming lessons of enrolled courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.Lesson
// @Router /courses/upcoming-lessons [get]
func (h *CourseHandler) UpcomingLessons(c *gin.Context) {
	lessons, err := h.courses.UpcomingLessons(c.Request.Context(), actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lessons)
}

// ListLessons
// @Summary List lessons of a course
// @Tags lessons
// @Produce json
// @Param id path int true "Course ID"
// @Param status query string false "planned, completed or cancelled"
// @Success 200 {object} services.ListResponse[models.Lesson]
// @Failure 404 {object} ErrorResponse "Course not found or not visible"
// @Router /courses/{id}/lessons [get]
func (h *CourseHandler) ListLessons(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	params := services.LessonListParams{Pagination: h.parsePagination(c)}
	if status := c.Query("status"); status != "" {
		s := models.LessonStatus(status)
		params.Status = &s
	}

	lessons, err := h.lessons.List(c.Request.Context(), actorFromContext(c), courseID, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lessons)
}

// GetLesson
// @Summary Get lesson
// @Tags lessons
// @Produce json
// @Param id path int true "Course ID"
// @Param lesson_id path int true "Lesson ID"
// @Success 200 {object} models.Lesson
// @Router /courses/{id}/lessons/{lesson_id} [get]
func (h *CourseHandler) GetLesson(c *gin.Context) {
	courseID, lessonID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	lesson, err := h.lessons.Get(c.Request.Context(), actorFromContext(c), courseID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// CreateLesson
// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body services.CreateLessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Router /courses/{id}/lessons [post]
func (h *CourseHandler) CreateLesson(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req services.CreateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating lesson", "course_id", courseID)

	lesson, err := h.lessons.Create(c.Request.Context(), actorFromContext(c), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

// UpdateLesson
// @Summary Update lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param lesson_id path int true "Lesson ID"
// @Param request body services.UpdateLessonRequest true "Changes"
// @Success 200 {object} models.Lesson
// @Router /courses/{id}/lessons/{lesson_id} [patch]
func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	courseID, lessonID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	var req services.UpdateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.lessons.Update(c.Request.Context(), actorFromContext(c), courseID, lessonID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson
// @Summary Delete lesson
// @Tags lessons
// @Param id path int true "Course ID"
// @Param lesson_id path int true "Lesson ID"
// @Success 204
// @Router /courses/{id}/lessons/{lesson_id} [delete]
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	courseID, lessonID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting lesson", "course_id", courseID, "lesson_id", lessonID)

	if err := h.lessons.Delete(c.Request.Context(), actorFromContext(c), courseID, lessonID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CourseHandler) lessonParams(c *gin.Context) (uint, uint, bool) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return 0, 0, false
	}
	lessonID := h.parseIDParam(c, "lesson_id")
	if lessonID == 0 {
		return 0, 0, false
	}
	return courseID, lessonID, true
}
