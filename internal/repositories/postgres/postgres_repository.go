package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/munificent-school/backoffice/internal/cache"
	"github.com/munificent-school/backoffice/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	user        repositories.UserRepository
	course      repositories.CourseRepository
	lesson      repositories.LessonRepository
	enrollment  repositories.EnrollmentRepository
	application repositories.ApplicationRepository
	category    repositories.CategoryRepository
	post        repositories.PostRepository
	review      repositories.ReviewRepository
	settings    repositories.SettingsRepository
	dashboard   repositories.DashboardRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	return newRepository(config.DB, config.RedisClient, cache.NewCacheManager(config.RedisClient))
}

func newRepository(db *gorm.DB, redisClient *redis.Client, cacheManager *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:           db,
		redisClient:  redisClient,
		cacheManager: cacheManager,
		user:         NewUserPostgreSQL(db),
		course:       NewCoursePostgreSQL(db),
		lesson:       NewLessonPostgreSQL(db),
		enrollment:   NewEnrollmentPostgreSQL(db),
		application:  NewApplicationPostgreSQL(db),
		category:     NewCategoryPostgreSQL(db),
		post:         NewPostPostgreSQL(db),
		review:       NewReviewPostgreSQL(db),
		settings:     NewSettingsPostgreSQL(db, cacheManager),
		dashboard:    NewDashboardRepository(db),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository { return r.user }

func (r *PostgreSQLRepository) Course() repositories.CourseRepository { return r.course }

func (r *PostgreSQLRepository) Lesson() repositories.LessonRepository { return r.lesson }

func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }

func (r *PostgreSQLRepository) Application() repositories.ApplicationRepository {
	return r.application
}

func (r *PostgreSQLRepository) Category() repositories.CategoryRepository { return r.category }

func (r *PostgreSQLRepository) Post() repositories.PostRepository { return r.post }

func (r *PostgreSQLRepository) Review() repositories.ReviewRepository { return r.review }

func (r *PostgreSQLRepository) Settings() repositories.SettingsRepository { return r.settings }

func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository { return r.dashboard }

// WithTransaction executes fn against repositories bound to a single transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, r.redisClient, r.cacheManager))
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connectivity and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
