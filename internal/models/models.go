package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Course{},
		&CourseEnrollment{},
		&Lesson{},
		&Application{},
		&Category{},
		&Post{},
		&Review{},
		&SystemSettings{},
	}
}
