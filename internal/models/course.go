package models

// Course represents a course in the catalog
type Course struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Instructor  string   `json:"instructor"`
	Duration    string   `json:"duration"`        // free text, e.g. "6 weeks"
	Price       *float64 `json:"price,omitempty"` // nil or 0 means the course is free
	Thumbnail   string   `json:"thumbnail"`
}

// IsFree reports whether the course can be enrolled in without a payment
func (c Course) IsFree() bool {
	return c.Price == nil || *c.Price <= 0
}

// MyCourseItem represents an approved course together with the learner progress
type MyCourseItem struct {
	Course
	Progress int `json:"progress"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Instructor  string   `json:"instructor" validate:"required,max=255"`
	Duration    string   `json:"duration" validate:"max=64"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Thumbnail   string   `json:"thumbnail" validate:"omitempty,url"`
}

// EnrolledCourse is an approved course with the raw completion counts of a learner
type EnrolledCourse struct {
	Course
	Completed int
	Total     int
}
