package memory

import (
	"context"
	"sort"
	"time"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

// ===== APPLICATIONS =====

type applicationRepository struct {
	db *DB
}

func newestFirst(apps []*models.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID > apps[j].ID
	})
}

func (repo *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	app.ID = repo.db.nextID("applications")
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	if app.Status == "" {
		app.Status = models.ApplicationNew
	}
	stored := *app
	repo.db.applications[app.ID] = &stored
	return nil
}

func (repo *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	app, ok := repo.db.applications[id]
	if !ok {
		return nil, notFound("application", id)
	}
	out := *app
	return &out, nil
}

func (repo *applicationRepository) List(ctx context.Context, filters repositories.ApplicationFilters) ([]*models.Application, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]*models.Application, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		if filters.Status != nil && app.Status != *filters.Status {
			continue
		}
		out := *app
		apps = append(apps, &out)
	}
	newestFirst(apps)
	return paginate(apps, filters.Limit, filters.Offset), int64(len(apps)), nil
}

func (repo *applicationRepository) Update(ctx context.Context, app *models.Application) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.applications[app.ID]
	if !ok {
		return notFound("application", app.ID)
	}
	createdAt := existing.CreatedAt
	*existing = *app
	existing.CreatedAt = createdAt
	return nil
}

func (repo *applicationRepository) Delete(ctx context.Context, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.applications[id]; !ok {
		return notFound("application", id)
	}
	delete(repo.db.applications, id)
	return nil
}

// ===== BLOG CATEGORIES =====

type categoryRepository struct {
	db *DB
}

func (repo *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	category.ID = repo.db.nextID("categories")
	stored := *category
	repo.db.categories[category.ID] = &stored
	return nil
}

func (repo *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	c, ok := repo.db.categories[id]
	if !ok {
		return nil, notFound("category", id)
	}
	out := *c
	return &out, nil
}

func (repo *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	categories := make([]*models.Category, 0, len(repo.db.categories))
	for _, c := range repo.db.categories {
		out := *c
		categories = append(categories, &out)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (repo *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[category.ID]; !ok {
		return notFound("category", category.ID)
	}
	stored := *category
	repo.db.categories[category.ID] = &stored
	return nil
}

func (repo *categoryRepository) Delete(ctx context.Context, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[id]; !ok {
		return notFound("category", id)
	}
	for _, p := range repo.db.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	delete(repo.db.categories, id)
	return nil
}

func (repo *categoryRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ===== BLOG POSTS =====

type postRepository struct {
	db *DB
}

func (repo *postRepository) withRelations(p *models.Post) *models.Post {
	out := *p
	out.Author, out.Category = nil, nil
	out.AuthorName, out.CategoryName = "", ""
	if u, ok := repo.db.users[p.AuthorID]; ok {
		author := *u
		author.Profile = nil
		out.Author = &author
	}
	if p.CategoryID != nil {
		if c, ok := repo.db.categories[*p.CategoryID]; ok {
			category := *c
			out.Category = &category
		}
	}
	out.FillNames()
	return &out
}

func (repo *postRepository) Create(ctx context.Context, post *models.Post) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	post.ID = repo.db.nextID("posts")
	now := time.Now()
	post.CreatedAt, post.UpdatedAt = now, now
	stored := *post
	stored.Author, stored.Category = nil, nil
	repo.db.posts[post.ID] = &stored
	return nil
}

func (repo *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, ok := repo.db.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	return repo.withRelations(p), nil
}

func (repo *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.posts {
		if p.Slug == slug {
			return repo.withRelations(p), nil
		}
	}
	return nil, notFound("post", slug)
}

func (repo *postRepository) List(ctx context.Context, filters repositories.PostFilters) ([]*models.Post, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(repo.db.posts))
	for _, p := range repo.db.posts {
		if filters.PublishedOnly && !p.IsPublished {
			continue
		}
		post := repo.withRelations(p)
		if filters.CategorySlug != "" && (post.Category == nil || post.Category.Slug != filters.CategorySlug) {
			continue
		}
		if filters.Search != "" && !containsFold(post.Title, filters.Search) && !containsFold(post.Content, filters.Search) {
			continue
		}
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return paginate(posts, filters.Limit, filters.Offset), int64(len(posts)), nil
}

func (repo *postRepository) Update(ctx context.Context, post *models.Post) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.posts[post.ID]
	if !ok {
		return notFound("post", post.ID)
	}
	existing.Title = post.Title
	existing.Slug = post.Slug
	existing.Content = post.Content
	existing.Excerpt = post.Excerpt
	existing.CategoryID = post.CategoryID
	existing.Image = post.Image
	existing.IsPublished = post.IsPublished
	existing.UpdatedAt = time.Now()
	return nil
}

func (repo *postRepository) Delete(ctx context.Context, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[id]; !ok {
		return notFound("post", id)
	}
	delete(repo.db.posts, id)
	return nil
}

func (repo *postRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ===== REVIEWS =====

type reviewRepository struct {
	db *DB
}

func (repo *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	review.ID = repo.db.nextID("reviews")
	review.CreatedAt = time.Now()
	stored := *review
	repo.db.reviews[review.ID] = &stored
	return nil
}

func (repo *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	r, ok := repo.db.reviews[id]
	if !ok {
		return nil, notFound("review", id)
	}
	out := *r
	return &out, nil
}

func (repo *reviewRepository) List(ctx context.Context, filters repositories.ReviewFilters) ([]*models.Review, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reviews := make([]*models.Review, 0, len(repo.db.reviews))
	for _, r := range repo.db.reviews {
		if filters.PublishedOnly && !r.IsPublished {
			continue
		}
		out := *r
		reviews = append(reviews, &out)
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID > reviews[j].ID })
	return paginate(reviews, filters.Limit, filters.Offset), int64(len(reviews)), nil
}

func (repo *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.reviews[review.ID]
	if !ok {
		return notFound("review", review.ID)
	}
	existing.Author = review.Author
	existing.Text = review.Text
	existing.ScoreInfo = review.ScoreInfo
	existing.IsPublished = review.IsPublished
	return nil
}

func (repo *reviewRepository) Delete(ctx context.Context, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.reviews[id]; !ok {
		return notFound("review", id)
	}
	delete(repo.db.reviews, id)
	return nil
}

// ===== SETTINGS =====

type settingsRepository struct {
	db *DB
}

func (repo *settingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.settings == nil {
		defaults := models.DefaultSystemSettings()
		defaults.UpdatedAt = time.Now()
		repo.db.settings = &defaults
	}
	out := *repo.db.settings
	return &out, nil
}

func (repo *settingsRepository) Update(ctx context.Context, settings *models.SystemSettings) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored := *settings
	stored.ID = models.SystemSettingsID
	stored.UpdatedAt = time.Now()
	repo.db.settings = &stored
	return nil
}

// ===== DASHBOARD =====

type dashboardRepository struct {
	db *DB
}

func (repo *dashboardRepository) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int64
	for _, u := range repo.db.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (repo *dashboardRepository) CountCourses(ctx context.Context) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return int64(len(repo.db.courses)), nil
}

func (repo *dashboardRepository) CountApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int64
	for _, a := range repo.db.applications {
		if a.Status == status {
			count++
		}
	}
	return count, nil
}

func (repo *dashboardRepository) RecentApplications(ctx context.Context, limit int) ([]*models.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]*models.Application, 0, len(repo.db.applications))
	for _, a := range repo.db.applications {
		out := *a
		apps = append(apps, &out)
	}
	newestFirst(apps)
	return paginate(apps, limit, 0), nil
}

func (repo *dashboardRepository) CountEnrolledCourses(ctx context.Context, profileID uint) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int64
	for key := range repo.db.enrollments {
		if key.profileID == profileID {
			count++
		}
	}
	return count, nil
}

func (repo *dashboardRepository) CountTeacherCourses(ctx context.Context, teacherID uint) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int64
	for _, c := range repo.db.courses {
		if c.TeacherID != nil && *c.TeacherID == teacherID {
			count++
		}
	}
	return count, nil
}

func (repo *dashboardRepository) CountDistinctStudents(ctx context.Context, teacherID uint) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	profiles := make(map[uint]struct{})
	for key := range repo.db.enrollments {
		c, ok := repo.db.courses[key.courseID]
		if ok && c.TeacherID != nil && *c.TeacherID == teacherID {
			profiles[key.profileID] = struct{}{}
		}
	}
	return int64(len(profiles)), nil
}
