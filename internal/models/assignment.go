package models

import "time"

// DefaultMaxScore is used when an assignment is created without a maximum score
const DefaultMaxScore = 100

// Assignment represents a course assignment together with the submission of the learner
type Assignment struct {
	ID          int                   `json:"id"`
	CourseID    int                   `json:"courseId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	DueDate     *time.Time            `json:"dueDate,omitempty"`
	MaxScore    int                   `json:"maxScore"`
	Submitted   bool                  `json:"isSubmitted"`
	Submission  *AssignmentSubmission `json:"submission,omitempty"`
}

// AssignmentSubmission is the work a learner handed in for an assignment
type AssignmentSubmission struct {
	ID           int        `json:"id"`
	AssignmentID int        `json:"assignmentId"`
	UserID       int        `json:"userId"`
	UserName     string     `json:"userName,omitempty"`
	Content      string     `json:"content"`
	FileID       *string    `json:"-"`
	HasFile      bool       `json:"hasFile"`
	FileType     string     `json:"fileType,omitempty"`
	Score        *int       `json:"score,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`
}

// Graded reports whether an administrator already scored the submission
func (s *AssignmentSubmission) Graded() bool {
	return s.GradedAt != nil
}

// CreateAssignmentRequest represents a request to add an assignment to a course
type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=10000"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	MaxScore    int        `json:"maxScore" validate:"gte=0"`
}

// SubmitAssignmentRequest carries the text part of a submission
type SubmitAssignmentRequest struct {
	Content string `json:"content" validate:"max=20000"`
}

// GradeRequest represents an administrator grading a submission
type GradeRequest struct {
	Score    int    `json:"score" validate:"gte=0"`
	Feedback string `json:"feedback" validate:"max=1000"`
}
