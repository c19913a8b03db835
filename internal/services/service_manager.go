package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

// ServiceManagerConfig holds the collaborators shared by the services.
type ServiceManagerConfig struct {
	Tokens    *auth.TokenIssuer
	Publisher events.Publisher

	// DefaultPassword is given to accounts created without one.
	DefaultPassword string
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	authService        AuthService
	userService        UserService
	courseService      CourseService
	lessonService      LessonService
	enrollmentService  EnrollmentService
	applicationService ApplicationService
	blogService        BlogService
	reviewService      ReviewService
	settingsService    SettingsService
	dashboardService   DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() error {
	if sm.repo == nil {
		return errors.New("repository is required")
	}
	if sm.config.Tokens == nil {
		return errors.New("token issuer is required")
	}

	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.config.Tokens)
	sm.logger.Info("Auth service initialized")

	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator, sm.config.DefaultPassword)
	sm.logger.Info("User service initialized")

	sm.courseService = NewCourseService(sm.repo, sm.logger, sm.validator)
	sm.lessonService = NewLessonService(sm.repo, sm.logger, sm.validator)
	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.logger, sm.config.Publisher)
	sm.logger.Info("Catalog services initialized")

	sm.applicationService = NewApplicationService(sm.repo, sm.logger, sm.validator, sm.config.Publisher)
	sm.blogService = NewBlogService(sm.repo, sm.logger, sm.validator)
	sm.reviewService = NewReviewService(sm.repo, sm.logger, sm.validator)
	sm.settingsService = NewSettingsService(sm.repo, sm.logger, sm.validator, sm.config.Publisher)
	sm.logger.Info("Content services initialized")

	sm.dashboardService = NewDashboardService(sm.repo, sm.logger)
	sm.logger.Info("Dashboard service initialized")

	return nil
}

// get guards every getter the same way.
func get[T any](sm *serviceManager, svc T) T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return svc
}

// Service getters
func (sm *serviceManager) Auth() AuthService               { return get(sm, sm.authService) }
func (sm *serviceManager) User() UserService               { return get(sm, sm.userService) }
func (sm *serviceManager) Course() CourseService           { return get(sm, sm.courseService) }
func (sm *serviceManager) Lesson() LessonService           { return get(sm, sm.lessonService) }
func (sm *serviceManager) Enrollment() EnrollmentService   { return get(sm, sm.enrollmentService) }
func (sm *serviceManager) Application() ApplicationService { return get(sm, sm.applicationService) }
func (sm *serviceManager) Blog() BlogService               { return get(sm, sm.blogService) }
func (sm *serviceManager) Review() ReviewService           { return get(sm, sm.reviewService) }
func (sm *serviceManager) Settings() SettingsService       { return get(sm, sm.settingsService) }
func (sm *serviceManager) Dashboard() DashboardService     { return get(sm, sm.dashboardService) }

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

// Shutdown closes the event publisher, then the repository connections.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	var errs []error
	if sm.config.Publisher != nil {
		if err := sm.config.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
			errs = append(errs, err)
		}
	}
	if sm.repo != nil {
		if err := sm.repo.Close(); err != nil {
			sm.logger.Error("Failed to close repository", "error", err)
			errs = append(errs, err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return errors.Join(errs...)
}
