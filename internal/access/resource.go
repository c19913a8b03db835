package access

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) IsWrite() bool {
	return o != OpRead
}

type Kind string

const (
	KindUser             Kind = "user"
	KindSelf             Kind = "self"
	KindPublicTeacher    Kind = "public_teacher"
	KindCourse           Kind = "course"
	KindLesson           Kind = "lesson"
	KindEnrollment       Kind = "enrollment"
	KindApplication      Kind = "application"
	KindPost             Kind = "post"
	KindCategory         Kind = "category"
	KindReview           Kind = "review"
	KindSettings         Kind = "settings"
	KindAdminDashboard   Kind = "dashboard_admin"
	KindStudentDashboard Kind = "dashboard_student"
	KindTeacherDashboard Kind = "dashboard_teacher"
	KindTeacherRoster    Kind = "teacher_roster"
)

// Resource describes the target of an operation together with the
// ownership data the object-level rule needs.
type Resource struct {
	Kind Kind

	// OwnerID is the user a KindSelf resource belongs to.
	OwnerID *uint
	// CourseTeacherID is resource.course.teacher for resources hanging off a course.
	CourseTeacherID *uint
	// TeacherID is a direct teacher relation (a course itself).
	TeacherID *uint
	// Published gates anonymous reads of posts and reviews.
	Published bool
}

func On(kind Kind) Resource {
	return Resource{Kind: kind}
}

func Self(userID uint) Resource {
	return Resource{Kind: KindSelf, OwnerID: &userID}
}

func CourseResource(teacherID *uint) Resource {
	return Resource{Kind: KindCourse, TeacherID: teacherID}
}

func LessonResource(courseTeacherID *uint) Resource {
	return Resource{Kind: KindLesson, CourseTeacherID: courseTeacherID}
}

func PostResource(published bool) Resource {
	return Resource{Kind: KindPost, Published: published}
}

func ReviewResource(published bool) Resource {
	return Resource{Kind: KindReview, Published: published}
}
