package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type ReviewHandler struct {
	BaseHandler
	service services.ReviewService
}

func NewReviewHandler(service services.ReviewService, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListReviews
// @Summary List reviews
// @Description Non-admin callers see published reviews only
// @Tags reviews
// @Produce json
// @Success 200 {object} services.ListResponse[models.Review]
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.service.List(c.Request.Context(), actorFromContext(c), h.parsePagination(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// GetReview
// @Summary Get review
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} ErrorResponse "Not found or unpublished"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	review, err := h.service.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req services.CreateReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.service.Create(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.service.Update(c.Request.Context(), actorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
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

// PublishReview
// @Summary Publish review
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Router /reviews/{id}/publish [post]
func (h *ReviewHandler) PublishReview(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Publishing review", "review_id", id)

	review, err := h.service.Publish(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}
