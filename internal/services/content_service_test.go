package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/models"
)

func TestApplicationService_PublicIntakeAndAdminFlow(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	_, student := f.user(models.RoleStudent, "s@example.com")
	svc := NewApplicationService(f.repo, testLogger(), f.validator, f.publisher)

	app, err := svc.Create(f.ctx, nil, &CreateApplicationRequest{Name: " Dana ", Phone: "+7 701 123 45 67", Subject: "Math"})
	require.NoError(t, err)
	assert.Equal(t, "Dana", app.Name)
	assert.Equal(t, models.ApplicationNew, app.Status)
	assert.Equal(t, []string{events.TopicApplicationCreated}, f.publisher.Topics())

	_, err = svc.Create(f.ctx, nil, &CreateApplicationRequest{Name: "No phone"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.List(f.ctx, nil, ApplicationListParams{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.List(f.ctx, student, ApplicationListParams{})
	assert.ErrorIs(t, err, ErrForbidden)

	contacted := models.ApplicationContacted
	updated, err := svc.Update(f.ctx, admin, app.ID, &UpdateApplicationRequest{Status: &contacted})
	require.NoError(t, err)
	assert.Equal(t, contacted, updated.Status)

	bogus := models.ApplicationStatus("lost")
	_, err = svc.Update(f.ctx, admin, app.ID, &UpdateApplicationRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidationFailed)

	newOnly := models.ApplicationNew
	page, err := svc.List(f.ctx, admin, ApplicationListParams{Status: &newOnly})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	require.NoError(t, svc.Delete(f.ctx, admin, app.ID))
	_, err = svc.Get(f.ctx, admin, app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplicationService_Export(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	svc := NewApplicationService(f.repo, testLogger(), f.validator, nil)

	for _, name := range []string{"Asel", "Bolat"} {
		_, err := svc.Create(f.ctx, nil, &CreateApplicationRequest{Name: name, Phone: "+77010000000"})
		require.NoError(t, err)
	}

	data, err := svc.Export(f.ctx, admin, nil)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(applicationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][1])
	assert.ElementsMatch(t, []string{"Asel", "Bolat"}, []string{rows[1][1], rows[2][1]})

	bogus := models.ApplicationStatus("lost")
	_, err = svc.Export(f.ctx, admin, &bogus)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestBlogService_VisibilityAndSlugs(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	_, student := f.user(models.RoleStudent, "s@example.com")
	svc := NewBlogService(f.repo, testLogger(), f.validator)

	category, err := svc.CreateCategory(f.ctx, admin, &CategoryRequest{Name: "Новости"})
	require.NoError(t, err)
	assert.Equal(t, "novosti", category.Slug)

	_, err = svc.CreateCategory(f.ctx, admin, &CategoryRequest{Name: "новости"})
	assert.ErrorIs(t, err, ErrConflict)

	published, err := svc.CreatePost(f.ctx, admin, &CreatePostRequest{Title: "Exam tips", CategoryID: &category.ID, IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "exam-tips", published.Slug)
	assert.Equal(t, "Новости", published.CategoryName)

	draft, err := svc.CreatePost(f.ctx, admin, &CreatePostRequest{Title: "Exam tips"})
	require.NoError(t, err)
	assert.Equal(t, "exam-tips-2", draft.Slug)

	_, err = svc.CreatePost(f.ctx, admin, &CreatePostRequest{Title: "Orphan", CategoryID: ptr(uint(99))})
	assert.ErrorIs(t, err, ErrValidationFailed)

	public, err := svc.ListPosts(f.ctx, nil, PostListParams{})
	require.NoError(t, err)
	require.Len(t, public.Items, 1)
	assert.Equal(t, published.ID, public.Items[0].ID)

	all, err := svc.ListPosts(f.ctx, admin, PostListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	_, err = svc.GetPost(f.ctx, nil, draft.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetPost(f.ctx, student, draft.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreatePost(f.ctx, student, &CreatePostRequest{Title: "Mine"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdatePost(f.ctx, admin, draft.Slug, &UpdatePostRequest{IsPublished: ptr(true), CategoryID: OptionalID{Set: true, ID: &category.ID}})
	require.NoError(t, err)
	assert.Equal(t, draft.Slug, updated.Slug, "slug is stable without an explicit change")
	assert.True(t, updated.IsPublished)

	renamed, err := svc.UpdatePost(f.ctx, admin, draft.Slug, &UpdatePostRequest{Slug: ptr("Exam Tips")})
	require.NoError(t, err)
	assert.Equal(t, "exam-tips-2", renamed.Slug, "a post never collides with itself")

	require.NoError(t, svc.DeletePost(f.ctx, admin, renamed.Slug))
	_, err = svc.GetPost(f.ctx, admin, renamed.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewService_Visibility(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	_, teacher := f.user(models.RoleTeacher, "t@example.com")
	svc := NewReviewService(f.repo, testLogger(), f.validator)

	hidden, err := svc.Create(f.ctx, admin, &CreateReviewRequest{Author: "Parent", Text: "Great"})
	require.NoError(t, err)
	shown, err := svc.Create(f.ctx, admin, &CreateReviewRequest{Author: "Student", Text: "Fun", IsPublished: true})
	require.NoError(t, err)

	_, err = svc.Get(f.ctx, nil, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(f.ctx, teacher, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := svc.Get(f.ctx, nil, shown.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fun", got.Text)
	_, err = svc.Get(f.ctx, admin, hidden.ID)
	assert.NoError(t, err)

	public, err := svc.List(f.ctx, nil, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), public.Total)

	_, err = svc.Publish(f.ctx, teacher, hidden.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	published, err := svc.Publish(f.ctx, admin, hidden.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	public, err = svc.List(f.ctx, nil, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), public.Total)
}

func TestSettingsService(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	_, teacher := f.user(models.RoleTeacher, "t@example.com")
	svc := NewSettingsService(f.repo, testLogger(), f.validator, f.publisher)

	settings, err := svc.Get(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSystemSettings().SchoolName, settings.SchoolName)
	assert.True(t, settings.SMSNotifications)

	_, err = svc.Get(f.ctx, teacher)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(f.ctx, admin, &UpdateSettingsRequest{
		SchoolName:       ptr("Munificent Tutoring"),
		SMSNotifications: ptr(false),
		Timezone:         ptr("Europe/Berlin"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Munificent Tutoring", updated.SchoolName)
	assert.False(t, updated.SMSNotifications)
	assert.True(t, updated.EmailNotifications)
	assert.Equal(t, []string{events.TopicSettingsUpdated}, f.publisher.Topics())

	_, err = svc.Update(f.ctx, admin, &UpdateSettingsRequest{Timezone: ptr("Mars/Olympus")})
	assert.ErrorIs(t, err, ErrValidationFailed)

	again, err := svc.Get(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", again.Timezone)
}
