package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type BlogHandler struct {
	BaseHandler
	service services.BlogService
}

func NewBlogHandler(service services.BlogService, logger utils.Logger) *BlogHandler {
	return &BlogHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListPosts
// @Summary List blog posts
// @Description Anonymous callers see published posts only
// @Tags blog
// @Produce json
// @Param category query string false "Category slug"
// @Param search query string false "Search title and content"
// @Success 200 {object} services.ListResponse[models.Post]
// @Router /blog/posts [get]
func (h *BlogHandler) ListPosts(c *gin.Context) {
	params := services.PostListParams{
		Pagination: h.parsePagination(c),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
	}

	posts, err := h.service.ListPosts(c.Request.Context(), actorFromContext(c), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost
// @Summary Get blog post by slug
// @Tags blog
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /blog/posts/{slug} [get]
func (h *BlogHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), actorFromContext(c), c.Param("slug"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost
// @Summary Create blog post
// @Tags blog
// @Accept json
// @Produce json
// @Param request body services.CreatePostRequest true "Post"
// @Success 201 {object} models.Post
// @Router /blog/posts [post]
func (h *BlogHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating post", "title", req.Title)

	post, err := h.service.CreatePost(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost
// @Summary Update blog post
// @Tags blog
// @Accept json
// @Produce json
// @Param slug path string true "Post slug"
// @Param request body services.UpdatePostRequest true "Changes"
// @Success 200 {object} models.Post
// @Router /blog/posts/{slug} [patch]
func (h *BlogHandler) UpdatePost(c *gin.Context) {
	var req services.UpdatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), actorFromContext(c), c.Param("slug"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost
// @Summary Delete blog post
// @Tags blog
// @Param slug path string true "Post slug"
// @Success 204
// @Router /blog/posts/{slug} [delete]
func (h *BlogHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), actorFromContext(c), c.Param("slug")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BlogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *BlogHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *BlogHandler) UpdateCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), actorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *BlogHandler) DeleteCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.DeleteCategory(c.Request.Context(), actorFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
