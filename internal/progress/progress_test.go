package progress

import (
	"testing"

	"github.com/learnportal/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

// course builds a video list from completion flags, ids start at 1
func course(completed ...bool) []models.Video {
	videos := make([]models.Video, len(completed))
	for i, c := range completed {
		videos[i] = models.Video{ID: i + 1, CourseID: 1, Position: i + 1, Completed: c}
	}
	return videos
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		videos   []models.Video
		expected int
	}{
		{name: "empty course", videos: nil, expected: 0},
		{name: "nothing completed", videos: course(false, false, false, false), expected: 0},
		{name: "half completed", videos: course(true, false, true, false), expected: 50},
		{name: "all completed", videos: course(true, true, true, true), expected: 100},
		{name: "one of three rounds down", videos: course(true, false, false), expected: 33},
		{name: "two of three rounds up", videos: course(true, true, false), expected: 67},
		{name: "one of eight ties round up", videos: course(true, false, false, false, false, false, false, false), expected: 13},
		{name: "three of eight ties round up", videos: course(true, true, true, false, false, false, false, false), expected: 38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compute(tt.videos))
		})
	}
}

func TestPercentage_Bounds(t *testing.T) {
	for total := 0; total <= 60; total++ {
		for completed := 0; completed <= total; completed++ {
			p := Percentage(completed, total)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
			if completed < total {
				assert.Less(t, p, 100, "completed=%d total=%d", completed, total)
			}
		}
	}
	assert.Equal(t, 99, Percentage(199, 200))
	assert.Equal(t, 100, Percentage(200, 200))
}

func TestCompute_MonotonicAcrossCompletions(t *testing.T) {
	videos := course(false, false, false, false, false, false, false)
	order := []int{4, 0, 6, 2, 2, 5, 1, 3, 0}

	previous := Compute(videos)
	for _, idx := range order {
		videos[idx].Completed = true
		current := Compute(videos)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
	assert.Equal(t, 100, previous)
}

func TestCertificateScenario(t *testing.T) {
	videos := course(false, false, false, false)
	assert.Equal(t, 0, Compute(videos))
	assert.False(t, CertificateAvailable(videos))

	videos[0].Completed = true
	videos[2].Completed = true
	assert.Equal(t, 50, Compute(videos))
	assert.False(t, CertificateAvailable(videos))

	videos[1].Completed = true
	videos[3].Completed = true
	assert.Equal(t, 100, Compute(videos))
	assert.True(t, CertificateAvailable(videos))
}

func TestCertificateAvailable_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		expected  bool
	}{
		{name: "199 of 200 rounds to 100", completed: 199, total: 200, expected: true},
		{name: "198 of 200 is 99", completed: 198, total: 200, expected: false},
		{name: "all completed", completed: 200, total: 200, expected: true},
		{name: "2 of 3 is 67", completed: 2, total: 3, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := make([]bool, tt.total)
			for i := 0; i < tt.completed; i++ {
				flags[i] = true
			}
			videos := course(flags...)

			assert.Equal(t, tt.expected, CertificateAvailable(videos))
			assert.Equal(t, tt.expected, Summary(1, videos).CertificateAvailable)
		})
	}
}

func TestSummary(t *testing.T) {
	summary := Summary(7, course(true, false, true))

	assert.Equal(t, models.CourseProgress{
		CourseID:             7,
		Completed:            2,
		Total:                3,
		Progress:             67,
		CertificateAvailable: false,
	}, summary)

	assert.True(t, Summary(7, course(true)).CertificateAvailable)
	assert.False(t, Summary(7, nil).CertificateAvailable)
}

func TestNextUnwatched(t *testing.T) {
	tests := []struct {
		name       string
		videos     []models.Video
		currentID  int
		expectedID int
		expectedOK bool
	}{
		{name: "next after current", videos: course(true, true, false, false), currentID: 2, expectedID: 3, expectedOK: true},
		{name: "wraps to first incomplete", videos: course(true, false, true, false), currentID: 4, expectedID: 2, expectedOK: true},
		{name: "skips completed after current", videos: course(false, false, true, false), currentID: 2, expectedID: 4, expectedOK: true},
		{name: "current itself is not a candidate after it", videos: course(true, false, true, true), currentID: 2, expectedID: 2, expectedOK: true},
		{name: "all complete", videos: course(true, true, true), currentID: 1, expectedOK: false},
		{name: "empty", videos: nil, currentID: 1, expectedOK: false},
		{name: "unknown current scans from start", videos: course(true, false, false), currentID: 42, expectedID: 2, expectedOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video, ok := NextUnwatched(tt.videos, tt.currentID)

			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectedOK {
				assert.Equal(t, tt.expectedID, video.ID)
			}
		})
	}
}

func TestContains(t *testing.T) {
	videos := course(false, true)
	assert.True(t, Contains(videos, 2))
	assert.False(t, Contains(videos, 3))
}
