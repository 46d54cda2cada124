package models

import "time"

// DefaultPassScore is used when a quiz is created without a pass score
const DefaultPassScore = 60

// Quiz represents a course quiz together with the best result of the learner
type Quiz struct {
	ID            int    `json:"id"`
	CourseID      int    `json:"courseId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TimeLimit     int    `json:"timeLimit"` // minutes, 0 means unlimited
	PassScore     int    `json:"passScore"`
	QuestionCount int    `json:"questionCount"`
	Completed     bool   `json:"isCompleted"`
	Score         *int   `json:"score,omitempty"` // best score, nil before the first attempt
}

// QuizQuestion is a multiple choice question
//
// CorrectOption is only sent to administrators and with submission results.
type QuizQuestion struct {
	ID            int      `json:"id"`
	QuizID        int      `json:"quizId"`
	Text          string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correctOption,omitempty"`
	Position      int      `json:"position"`
}

// QuizDetail is a quiz with its questions in order
type QuizDetail struct {
	Quiz
	Questions []QuizQuestion `json:"questions"`
}

// QuizAnswer is the option a learner selected for a question
type QuizAnswer struct {
	QuestionID     int `json:"questionId" validate:"required,gt=0"`
	SelectedOption int `json:"selectedOption" validate:"gte=0"`
}

// SubmitQuizRequest represents a quiz attempt
type SubmitQuizRequest struct {
	Answers []QuizAnswer `json:"answers" validate:"required,min=1,dive"`
}

// QuizSubmission is a scored quiz attempt
type QuizSubmission struct {
	ID          int          `json:"id"`
	QuizID      int          `json:"quizId"`
	UserID      int          `json:"userId"`
	Score       int          `json:"score"`
	Correct     int          `json:"correct"`
	Total       int          `json:"total"`
	Passed      bool         `json:"isPassed"`
	Answers     []QuizAnswer `json:"answers"`
	CompletedAt time.Time    `json:"completedAt"`
}

// QuizResult is a submission with the questions and their correct options
type QuizResult struct {
	QuizSubmission
	Questions []QuizQuestion `json:"questions"`
}

// CreateQuestionRequest represents a question of a new quiz
type CreateQuestionRequest struct {
	Text          string   `json:"questionText" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectOption int      `json:"correctOption" validate:"gte=0"`
}

// CreateQuizRequest represents a request to add a quiz to a course
type CreateQuizRequest struct {
	Title       string                  `json:"title" validate:"required,max=255"`
	Description string                  `json:"description" validate:"max=5000"`
	TimeLimit   int                     `json:"timeLimit" validate:"gte=0"`
	PassScore   int                     `json:"passScore" validate:"gte=0,lte=100"`
	Questions   []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}
