package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

// ===== APPLICATIONS =====

type ApplicationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewApplicationPostgreSQL(db *gorm.DB) repositories.ApplicationRepository {
	return &ApplicationPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *ApplicationPostgreSQL) Create(ctx context.Context, app *models.Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *ApplicationPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, notFound(err, "application", id)
	}
	return &app, nil
}

func (r *ApplicationPostgreSQL) List(ctx context.Context, filters repositories.ApplicationFilters) ([]*models.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	query = r.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var apps []*models.Application
	if err := query.Order("created_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

func (r *ApplicationPostgreSQL) Update(ctx context.Context, app *models.Application) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", app.ID).
		Select("name", "phone", "student_class", "subject", "comment", "status").
		Updates(app)
	if err := requireAffected(result, "application", app.ID); err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return nil
}

func (r *ApplicationPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Application{}, id)
	if err := requireAffected(result, "application", id); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

// ===== BLOG CATEGORIES =====

type CategoryPostgreSQL struct {
	db *gorm.DB
}

func NewCategoryPostgreSQL(db *gorm.DB) repositories.CategoryRepository {
	return &CategoryPostgreSQL{db: db}
}

func (r *CategoryPostgreSQL) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *CategoryPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, "category", id)
	}
	return &category, nil
}

func (r *CategoryPostgreSQL) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryPostgreSQL) Update(ctx context.Context, category *models.Category) error {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).
		Select("name", "slug").
		Updates(category)
	if err := requireAffected(result, "category", category.ID); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes the category; its posts keep existing with a NULL category.
func (r *CategoryPostgreSQL) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach posts: %w", err)
		}
		result := tx.Delete(&models.Category{}, id)
		if err := requireAffected(result, "category", id); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

func (r *CategoryPostgreSQL) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return count > 0, nil
}

// ===== BLOG POSTS =====

type PostPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewPostPostgreSQL(db *gorm.DB) repositories.PostRepository {
	return &PostPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *PostPostgreSQL) withRelations(query *gorm.DB) *gorm.DB {
	return query.Preload("Category").Preload("Author")
}

func (r *PostPostgreSQL) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFound(err, "post", id)
	}
	post.FillNames()
	return &post, nil
}

func (r *PostPostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, notFound(err, "post", slug)
	}
	post.FillNames()
	return &post, nil
}

func (r *PostPostgreSQL) List(ctx context.Context, filters repositories.PostFilters) ([]*models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})
	if filters.PublishedOnly {
		query = query.Where("blog_posts.is_published = ?", true)
	}
	if filters.CategorySlug != "" {
		query = query.Joins("JOIN blog_categories ON blog_categories.id = blog_posts.category_id").
			Where("blog_categories.slug = ?", filters.CategorySlug)
	}
	if filters.Search != "" {
		pattern := LikePattern(filters.Search)
		query = query.Where("blog_posts.title ILIKE ? OR blog_posts.content ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query = r.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var posts []*models.Post
	if err := r.withRelations(query).Order("blog_posts.created_at DESC").Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	for _, post := range posts {
		post.FillNames()
	}
	return posts, total, nil
}

func (r *PostPostgreSQL) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
		Select("title", "slug", "content", "excerpt", "category_id", "image", "is_published").
		Updates(post)
	if err := requireAffected(result, "post", post.ID); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

func (r *PostPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if err := requireAffected(result, "post", id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (r *PostPostgreSQL) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check post slug: %w", err)
	}
	return count > 0, nil
}

// ===== REVIEWS =====

type ReviewPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewReviewPostgreSQL(db *gorm.DB) repositories.ReviewRepository {
	return &ReviewPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *ReviewPostgreSQL) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *ReviewPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, notFound(err, "review", id)
	}
	return &review, nil
}

func (r *ReviewPostgreSQL) List(ctx context.Context, filters repositories.ReviewFilters) ([]*models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{})
	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query = r.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var reviews []*models.Review
	if err := query.Order("id DESC").Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *ReviewPostgreSQL) Update(ctx context.Context, review *models.Review) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", review.ID).
		Select("author", "text", "score_info", "is_published").
		Updates(review)
	if err := requireAffected(result, "review", review.ID); err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}

func (r *ReviewPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if err := requireAffected(result, "review", id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}
