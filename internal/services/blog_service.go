package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/utils"
	"github.com/munificent-school/backoffice/internal/validator"
)

type blogService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	guard     guard
}

func NewBlogService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) BlogService {
	return &blogService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		guard:     newGuard(),
	}
}

// ===== POSTS =====

// ListPosts shows drafts to admins only.
func (s *blogService) ListPosts(ctx context.Context, actor *access.Actor, params PostListParams) (*ListResponse[*models.Post], error) {
	limit, offset := params.Normalize()
	posts, total, err := s.repo.Post().List(ctx, repositories.PostFilters{
		PublishedOnly: !s.guard.policy.CanPerform(actor, access.OpRead, access.PostResource(false)),
		CategorySlug:  params.Category,
		Search:        strings.TrimSpace(params.Search),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return newListResponse(posts, total, params.Pagination), nil
}

func (s *blogService) GetPost(ctx context.Context, actor *access.Actor, slug string) (*models.Post, error) {
	post, err := s.repo.Post().GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "post")
	}
	if err := s.guard.canSee(actor, access.PostResource(post.IsPublished), "post"); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *blogService) CreatePost(ctx context.Context, actor *access.Actor, req *CreatePostRequest) (*models.Post, error) {
	if err := s.guard.require(actor, access.OpCreate, access.PostResource(false)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	base := req.Slug
	if base == "" {
		base = req.Title
	}
	slug, err := utils.UniqueSlug(ctx, base, "post", func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.Post().SlugExists(ctx, candidate, 0)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pick post slug: %w", err)
	}

	post := &models.Post{
		Title:       req.Title,
		Slug:        slug,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		AuthorID:    actor.ID,
		CategoryID:  req.CategoryID,
		Image:       emptyToNil(req.Image),
		IsPublished: req.IsPublished,
	}
	if err := s.repo.Post().Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("Post created", "post_id", post.ID, "slug", post.Slug, "published", post.IsPublished)
	return s.repo.Post().GetByID(ctx, post.ID)
}

// UpdatePost keeps the slug unless a new one is given explicitly.
func (s *blogService) UpdatePost(ctx context.Context, actor *access.Actor, slug string, req *UpdatePostRequest) (*models.Post, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.PostResource(false)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	post, err := s.repo.Post().GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "post")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Image != nil {
		post.Image = emptyToNil(req.Image)
	}
	if req.IsPublished != nil {
		post.IsPublished = *req.IsPublished
	}
	if req.CategoryID.Set {
		if err := s.checkCategory(ctx, req.CategoryID.ID); err != nil {
			return nil, err
		}
		post.CategoryID = req.CategoryID.ID
	}
	if req.Slug != nil {
		newSlug, err := utils.UniqueSlug(ctx, *req.Slug, "post", func(ctx context.Context, candidate string) (bool, error) {
			return s.repo.Post().SlugExists(ctx, candidate, post.ID)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to pick post slug: %w", err)
		}
		post.Slug = newSlug
	}

	if err := s.repo.Post().Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.logger.Info("Post updated", "post_id", post.ID, "slug", post.Slug)
	return s.repo.Post().GetByID(ctx, post.ID)
}

func (s *blogService) DeletePost(ctx context.Context, actor *access.Actor, slug string) error {
	if err := s.guard.require(actor, access.OpDelete, access.PostResource(false)); err != nil {
		return err
	}
	post, err := s.repo.Post().GetBySlug(ctx, slug)
	if err != nil {
		return notFoundOr(err, "post")
	}
	if err := s.repo.Post().Delete(ctx, post.ID); err != nil {
		return notFoundOr(err, "post")
	}
	s.logger.Info("Post deleted", "post_id", post.ID, "slug", slug)
	return nil
}

// ===== CATEGORIES =====

func (s *blogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.Category().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *blogService) CreateCategory(ctx context.Context, actor *access.Actor, req *CategoryRequest) (*models.Category, error) {
	if err := s.guard.require(actor, access.OpCreate, access.On(access.KindCategory)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}
	category := &models.Category{Name: strings.TrimSpace(req.Name)}
	if err := s.fillCategory(ctx, category, req); err != nil {
		return nil, err
	}
	if err := s.repo.Category().Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.logger.Info("Category created", "category_id", category.ID, "slug", category.Slug)
	return category, nil
}

func (s *blogService) UpdateCategory(ctx context.Context, actor *access.Actor, id uint, req *CategoryRequest) (*models.Category, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.On(access.KindCategory)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}
	category, err := s.repo.Category().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}

	category.Name = strings.TrimSpace(req.Name)
	if err := s.fillCategory(ctx, category, req); err != nil {
		return nil, err
	}
	if err := s.repo.Category().Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteCategory leaves the category's posts uncategorized.
func (s *blogService) DeleteCategory(ctx context.Context, actor *access.Actor, id uint) error {
	if err := s.guard.require(actor, access.OpDelete, access.On(access.KindCategory)); err != nil {
		return err
	}
	if err := s.repo.Category().Delete(ctx, id); err != nil {
		return notFoundOr(err, "category")
	}
	s.logger.Info("Category deleted", "category_id", id)
	return nil
}

// fillCategory rejects duplicate names and derives a unique slug.
func (s *blogService) fillCategory(ctx context.Context, category *models.Category, req *CategoryRequest) error {
	existing, err := s.repo.Category().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	for _, other := range existing {
		if other.ID != category.ID && strings.EqualFold(other.Name, category.Name) {
			return fmt.Errorf("category %q: %w", category.Name, ErrConflict)
		}
	}

	base := req.Slug
	if base == "" {
		if category.Slug != "" {
			return nil
		}
		base = category.Name
	}
	slug, err := utils.UniqueSlug(ctx, base, "category", func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.Category().SlugExists(ctx, candidate, category.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to pick category slug: %w", err)
	}
	category.Slug = slug
	return nil
}

func (s *blogService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.Category().GetByID(ctx, *id); err != nil {
		if repositories.IsNotFoundError(err) {
			return invalidField("category", fmt.Sprintf("category %d does not exist", *id), "exists")
		}
		return fmt.Errorf("failed to load category: %w", err)
	}
	return nil
}
