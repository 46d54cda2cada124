package models

// Video represents a course video together with the learner completion state
type Video struct {
	ID         int    `json:"id"`
	CourseID   int    `json:"courseId"`
	Title      string `json:"title"`
	Duration   string `json:"duration"`
	URL        string `json:"url,omitempty"`
	Position   int    `json:"position"`   // curriculum order
	Completed  bool   `json:"completed"`  // never reverts to false
	Checkpoint int    `json:"checkpoint"` // resume position in seconds
}

// CourseProgress summarises the learner completion of a course
type CourseProgress struct {
	CourseID             int  `json:"courseId"`
	Completed            int  `json:"completed"`
	Total                int  `json:"total"`
	Progress             int  `json:"progress"`
	CertificateAvailable bool `json:"certificateAvailable"`
}

// CompleteVideoRequest represents a request to mark a video as completed
type CompleteVideoRequest struct {
	VideoID int `json:"videoId" validate:"required,gt=0"`
}

// CheckpointRequest represents a request to store the resume position of a video
type CheckpointRequest struct {
	VideoID    int `json:"videoId" validate:"required,gt=0"`
	Checkpoint int `json:"checkpoint" validate:"gte=0"`
}

// CreateVideoRequest represents a request to add a video to a course
type CreateVideoRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Duration string `json:"duration" validate:"max=32"`
	URL      string `json:"url" validate:"required,url"`
	Position int    `json:"position" validate:"gte=0"`
}

// CurriculumVideo is one entry of a curriculum replacement; a zero ID adds a new video
type CurriculumVideo struct {
	ID       int    `json:"id,omitempty" validate:"gte=0"`
	Title    string `json:"title" validate:"required,max=255"`
	Duration string `json:"duration" validate:"max=32"`
	URL      string `json:"url" validate:"required,url"`
}

// ReplaceVideosRequest replaces the curriculum of a course, positions follow list order
type ReplaceVideosRequest struct {
	Videos []CurriculumVideo `json:"videos" validate:"dive"`
}
