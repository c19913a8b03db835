package services

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/models"
)

// ===== SHARED =====

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is the ?page=&size= pair every list endpoint accepts.
type Pagination struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Normalize clamps the pair and returns limit and offset.
func (p *Pagination) Normalize() (limit, offset int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p.Size, (p.Page - 1) * p.Size
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func newListResponse[T any](items []T, total int64, p Pagination) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResponse[T]{Items: items, Total: total, Page: p.Page, Size: p.Size}
}

// OptionalID tells an absent field apart from an explicit null.
type OptionalID struct {
	Set bool
	ID  *uint
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.ID = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

// ===== AUTH =====

type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AccessToken struct {
	Access string `json:"access"`
}

// ===== USERS =====

type ProfileInput struct {
	Avatar            *string `json:"avatar" validate:"omitempty,max=500"`
	PublicDescription *string `json:"public_description"`
	PublicSubjects    *string `json:"public_subjects" validate:"omitempty,max=255"`
	Phone             *string `json:"phone" validate:"omitempty,phone"`
	School            *string `json:"school" validate:"omitempty,max=255"`
	StudentClass      *string `json:"student_class" validate:"omitempty,max=50"`
	ParentName        *string `json:"parent_name" validate:"omitempty,max=255"`
	ParentPhone       *string `json:"parent_phone" validate:"omitempty,phone"`
}

type CreateUserRequest struct {
	Email     string          `json:"email" validate:"required,email,max=254"`
	FirstName string          `json:"first_name" validate:"max=150"`
	LastName  string          `json:"last_name" validate:"max=150"`
	Role      models.UserRole `json:"role" validate:"required,user_role"`
	Password  string          `json:"password"`
	IsActive  *bool           `json:"is_active"`
	Profile   *ProfileInput   `json:"profile" validate:"omitempty"`
}

type UpdateUserRequest struct {
	Email     *string          `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string          `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string          `json:"last_name" validate:"omitempty,max=150"`
	Role      *models.UserRole `json:"role" validate:"omitempty,user_role"`
	Password  *string          `json:"password"`
	IsActive  *bool            `json:"is_active"`
	Profile   *ProfileInput    `json:"profile" validate:"omitempty"`
}

// UpdateMeRequest is the self-service subset; role and staff flags are not accepted.
type UpdateMeRequest struct {
	Email     *string       `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string       `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string       `json:"last_name" validate:"omitempty,max=150"`
	Profile   *ProfileInput `json:"profile" validate:"omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type UserListParams struct {
	Pagination
	Role   *models.UserRole
	Search string
}

type PublicTeacher struct {
	ID                uint    `json:"id"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Avatar            *string `json:"avatar"`
	PublicDescription string  `json:"public_description"`
	PublicSubjects    string  `json:"public_subjects"`
}

// ===== CATALOG =====

type CreateCourseRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description"`
	Subject     string          `json:"subject" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	TeacherID   *uint           `json:"teacher"`
}

type UpdateCourseRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Subject     *string          `json:"subject" validate:"omitempty,max=100"`
	Price       *decimal.Decimal `json:"price"`
	TeacherID   OptionalID       `json:"teacher"`
}

type CourseListParams struct {
	Pagination
	Search    string
	SortBy    string
	SortOrder string
}

type CreateLessonRequest struct {
	Title        string              `json:"title" validate:"required,max=200"`
	Content      string              `json:"content"`
	Date         string              `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string              `json:"time" validate:"omitempty,datetime=15:04"`
	Status       models.LessonStatus `json:"status" validate:"omitempty,lesson_status"`
	RecordingURL *string             `json:"recording_url" validate:"omitempty,url,max=500"`
	HomeworkURL  *string             `json:"homework_url" validate:"omitempty,url,max=500"`
}

type UpdateLessonRequest struct {
	Title        *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Content      *string              `json:"content"`
	Date         *string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time         *string              `json:"time" validate:"omitempty,datetime=15:04"`
	Status       *models.LessonStatus `json:"status" validate:"omitempty,lesson_status"`
	RecordingURL *string              `json:"recording_url" validate:"omitempty,url,max=500"`
	HomeworkURL  *string              `json:"homework_url" validate:"omitempty,url,max=500"`
}

type LessonListParams struct {
	Pagination
	Status *models.LessonStatus
}

type EnrollmentResponse struct {
	Status    string `json:"status"`
	StudentID uint   `json:"student_id"`
	CourseIDs []uint `json:"course_ids"`
}

// ===== CONTENT =====

type CreateApplicationRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,phone"`
	StudentClass string `json:"student_class" validate:"max=50"`
	Subject      string `json:"subject" validate:"max=100"`
	Comment      string `json:"comment"`
}

type UpdateApplicationRequest struct {
	Name         *string                   `json:"name" validate:"omitempty,min=1,max=255"`
	Phone        *string                   `json:"phone" validate:"omitempty,phone"`
	StudentClass *string                   `json:"student_class" validate:"omitempty,max=50"`
	Subject      *string                   `json:"subject" validate:"omitempty,max=100"`
	Comment      *string                   `json:"comment"`
	Status       *models.ApplicationStatus `json:"status" validate:"omitempty,application_status"`
}

type ApplicationListParams struct {
	Pagination
	Status *models.ApplicationStatus
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
}

type CreatePostRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Slug        string  `json:"slug" validate:"omitempty,max=200"`
	Content     string  `json:"content"`
	Excerpt     string  `json:"excerpt"`
	CategoryID  *uint   `json:"category"`
	Image       *string `json:"image" validate:"omitempty,max=500"`
	IsPublished bool    `json:"is_published"`
}

type UpdatePostRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Slug        *string    `json:"slug" validate:"omitempty,min=1,max=200"`
	Content     *string    `json:"content"`
	Excerpt     *string    `json:"excerpt"`
	CategoryID  OptionalID `json:"category"`
	Image       *string    `json:"image" validate:"omitempty,max=500"`
	IsPublished *bool      `json:"is_published"`
}

type PostListParams struct {
	Pagination
	Category string
	Search   string
}

type CreateReviewRequest struct {
	Author      string `json:"author" validate:"required,max=255"`
	Text        string `json:"text" validate:"required"`
	ScoreInfo   string `json:"score_info" validate:"max=255"`
	IsPublished bool   `json:"is_published"`
}

type UpdateReviewRequest struct {
	Author      *string `json:"author" validate:"omitempty,min=1,max=255"`
	Text        *string `json:"text" validate:"omitempty,min=1"`
	ScoreInfo   *string `json:"score_info" validate:"omitempty,max=255"`
	IsPublished *bool   `json:"is_published"`
}

type UpdateSettingsRequest struct {
	SchoolName         *string `json:"school_name" validate:"omitempty,min=1,max=255"`
	Address            *string `json:"address" validate:"omitempty,max=255"`
	Phone              *string `json:"phone" validate:"omitempty,phone"`
	Email              *string `json:"email" validate:"omitempty,email,max=254"`
	EmailNotifications *bool   `json:"email_notifications"`
	SMSNotifications   *bool   `json:"sms_notifications"`
	PaymentReminders   *bool   `json:"payment_reminders"`
	ClassReminders     *bool   `json:"class_reminders"`
	Timezone           *string `json:"timezone" validate:"omitempty,timezone"`
	Language           *string `json:"language" validate:"omitempty,min=1,max=50"`
	Currency           *string `json:"currency" validate:"omitempty,min=1,max=10"`
}

// ===== DASHBOARDS =====

type AdminStats struct {
	StudentsCount        int64 `json:"studentsCount"`
	TeachersCount        int64 `json:"teachersCount"`
	CoursesCount         int64 `json:"coursesCount"`
	NewApplicationsCount int64 `json:"newApplicationsCount"`
}

type AdminDashboard struct {
	Stats              AdminStats            `json:"stats"`
	RecentApplications []*models.Application `json:"recentApplications"`
}

type StudentDashboard struct {
	EnrolledCoursesCount int64            `json:"enrolledCoursesCount"`
	UpcomingLessons      []*models.Lesson `json:"upcomingLessons"`
}

type TeacherDashboard struct {
	CoursesCount  int64 `json:"coursesCount"`
	StudentsCount int64 `json:"studentsCount"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*AccessToken, error)
	// Authenticate resolves an access token to an active user.
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type UserService interface {
	List(ctx context.Context, actor *access.Actor, params UserListParams) (*ListResponse[*models.User], error)
	Get(ctx context.Context, actor *access.Actor, id uint) (*models.User, error)
	Create(ctx context.Context, actor *access.Actor, req *CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor *access.Actor, id uint) error

	Me(ctx context.Context, actor *access.Actor) (*models.User, error)
	UpdateMe(ctx context.Context, actor *access.Actor, req *UpdateMeRequest) (*models.User, error)
	ChangePassword(ctx context.Context, actor *access.Actor, req *ChangePasswordRequest) error

	ListPublicTeachers(ctx context.Context) ([]PublicTeacher, error)
	TeacherStudents(ctx context.Context, actor *access.Actor, search string) ([]*models.User, error)
}

type CourseService interface {
	List(ctx context.Context, actor *access.Actor, params CourseListParams) (*ListResponse[*models.Course], error)
	Get(ctx context.Context, actor *access.Actor, id uint) (*models.Course, error)
	Create(ctx context.Context, actor *access.Actor, req *CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor *access.Actor, id uint) error

	// My lists the caller's courses: enrolled for students, taught for teachers, all for admins.
	My(ctx context.Context, actor *access.Actor) ([]*models.Course, error)
	UpcomingLessons(ctx context.Context, actor *access.Actor) ([]*models.Lesson, error)
}

type LessonService interface {
	List(ctx context.Context, actor *access.Actor, courseID uint, params LessonListParams) (*ListResponse[*models.Lesson], error)
	Get(ctx context.Context, actor *access.Actor, courseID, id uint) (*models.Lesson, error)
	Create(ctx context.Context, actor *access.Actor, courseID uint, req *CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, actor *access.Actor, courseID, id uint, req *UpdateLessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, actor *access.Actor, courseID, id uint) error
}

type EnrollmentService interface {
	// SetEnrollment replaces the student's whole enrollment set. courseIDs
	// must be a JSON array of integers.
	SetEnrollment(ctx context.Context, actor *access.Actor, studentID uint, courseIDs json.RawMessage) (*EnrollmentResponse, error)
}

type ApplicationService interface {
	Create(ctx context.Context, actor *access.Actor, req *CreateApplicationRequest) (*models.Application, error)
	List(ctx context.Context, actor *access.Actor, params ApplicationListParams) (*ListResponse[*models.Application], error)
	Get(ctx context.Context, actor *access.Actor, id uint) (*models.Application, error)
	Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateApplicationRequest) (*models.Application, error)
	Delete(ctx context.Context, actor *access.Actor, id uint) error
	// Export renders the filtered applications as an XLSX workbook.
	Export(ctx context.Context, actor *access.Actor, status *models.ApplicationStatus) ([]byte, error)
}

type BlogService interface {
	ListPosts(ctx context.Context, actor *access.Actor, params PostListParams) (*ListResponse[*models.Post], error)
	GetPost(ctx context.Context, actor *access.Actor, slug string) (*models.Post, error)
	CreatePost(ctx context.Context, actor *access.Actor, req *CreatePostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, actor *access.Actor, slug string, req *UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, actor *access.Actor, slug string) error

	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, actor *access.Actor, req *CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, actor *access.Actor, id uint, req *CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, actor *access.Actor, id uint) error
}

type ReviewService interface {
	List(ctx context.Context, actor *access.Actor, params Pagination) (*ListResponse[*models.Review], error)
	Get(ctx context.Context, actor *access.Actor, id uint) (*models.Review, error)
	Create(ctx context.Context, actor *access.Actor, req *CreateReviewRequest) (*models.Review, error)
	Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, actor *access.Actor, id uint) error
	Publish(ctx context.Context, actor *access.Actor, id uint) (*models.Review, error)
}

type SettingsService interface {
	Get(ctx context.Context, actor *access.Actor) (*models.SystemSettings, error)
	Update(ctx context.Context, actor *access.Actor, req *UpdateSettingsRequest) (*models.SystemSettings, error)
}

type DashboardService interface {
	Admin(ctx context.Context, actor *access.Actor) (*AdminDashboard, error)
	Student(ctx context.Context, actor *access.Actor) (*StudentDashboard, error)
	Teacher(ctx context.Context, actor *access.Actor) (*TeacherDashboard, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Course() CourseService
	Lesson() LessonService
	Enrollment() EnrollmentService
	Application() ApplicationService
	Blog() BlogService
	Review() ReviewService
	Settings() SettingsService
	Dashboard() DashboardService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
