package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

type reviewService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	guard     guard
}

func NewReviewService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ReviewService {
	return &reviewService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		guard:     newGuard(),
	}
}

func (s *reviewService) List(ctx context.Context, actor *access.Actor, params Pagination) (*ListResponse[*models.Review], error) {
	limit, offset := params.Normalize()
	reviews, total, err := s.repo.Review().List(ctx, repositories.ReviewFilters{
		PublishedOnly: !s.guard.policy.CanPerform(actor, access.OpRead, access.ReviewResource(false)),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return newListResponse(reviews, total, params), nil
}

func (s *reviewService) Get(ctx context.Context, actor *access.Actor, id uint) (*models.Review, error) {
	review, err := s.repo.Review().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review")
	}
	if err := s.guard.canSee(actor, access.ReviewResource(review.IsPublished), "review"); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Create(ctx context.Context, actor *access.Actor, req *CreateReviewRequest) (*models.Review, error) {
	if err := s.guard.require(actor, access.OpCreate, access.ReviewResource(false)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	review := &models.Review{
		Author:      req.Author,
		Text:        req.Text,
		ScoreInfo:   req.ScoreInfo,
		IsPublished: req.IsPublished,
	}
	if err := s.repo.Review().Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.Info("Review created", "review_id", review.ID, "published", review.IsPublished)
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateReviewRequest) (*models.Review, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.ReviewResource(false)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	review, err := s.repo.Review().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review")
	}
	if req.Author != nil {
		review.Author = *req.Author
	}
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.ScoreInfo != nil {
		review.ScoreInfo = *req.ScoreInfo
	}
	if req.IsPublished != nil {
		review.IsPublished = *req.IsPublished
	}

	if err := s.repo.Review().Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *access.Actor, id uint) error {
	if err := s.guard.require(actor, access.OpDelete, access.ReviewResource(false)); err != nil {
		return err
	}
	if err := s.repo.Review().Delete(ctx, id); err != nil {
		return notFoundOr(err, "review")
	}
	s.logger.Info("Review deleted", "review_id", id)
	return nil
}

// Publish makes the review visible on the public site. Publishing twice is a no-op.
func (s *reviewService) Publish(ctx context.Context, actor *access.Actor, id uint) (*models.Review, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.ReviewResource(false)); err != nil {
		return nil, err
	}
	review, err := s.repo.Review().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review")
	}
	if review.IsPublished {
		return review, nil
	}

	review.IsPublished = true
	if err := s.repo.Review().Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to publish review: %w", err)
	}
	s.logger.Info("Review published", "review_id", review.ID)
	return review, nil
}
