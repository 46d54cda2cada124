// Package progress derives course completion from the learner video set.
//
// Every function here is pure: the inputs are authoritative video snapshots and
// nothing is accumulated between calls, so the result is the same no matter in
// which order completions were recorded.
package progress

import "github.com/learnportal/backend/internal/models"

// CertificateThreshold is the only progress value that unlocks a certificate
const CertificateThreshold = 100

// CompletedCount returns the number of completed videos
func CompletedCount(videos []models.Video) int {
	count := 0
	for _, v := range videos {
		if v.Completed {
			count++
		}
	}
	return count
}

// Compute returns the course progress percentage in the range [0, 100].
//
// The value is 100*completed/total rounded half up, and 0 for an empty course.
func Compute(videos []models.Video) int {
	return Percentage(CompletedCount(videos), len(videos))
}

// Percentage rounds 100*completed/total half up using integer arithmetic only
func Percentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

// Summary builds the progress view of a course from its videos
func Summary(courseID int, videos []models.Video) models.CourseProgress {
	completed := CompletedCount(videos)
	p := Percentage(completed, len(videos))
	return models.CourseProgress{
		CourseID:             courseID,
		Completed:            completed,
		Total:                len(videos),
		Progress:             p,
		CertificateAvailable: p == CertificateThreshold,
	}
}

// CertificateAvailable reports whether the rounded progress equals CertificateThreshold.
//
// This is not the same as every video being completed: 199 of 200 rounds to 100.
func CertificateAvailable(videos []models.Video) bool {
	return Compute(videos) == CertificateThreshold
}

// NextUnwatched selects the video to auto-advance to.
//
// Videos strictly after currentID (in curriculum order) are scanned first for an
// incomplete one; if none is found the scan wraps to the first incomplete video
// of the whole list. When every video is complete nothing is returned. An
// unknown currentID behaves like a scan from the beginning.
func NextUnwatched(videos []models.Video, currentID int) (models.Video, bool) {
	start := 0
	for i, v := range videos {
		if v.ID == currentID {
			start = i + 1
			break
		}
	}

	for _, v := range videos[start:] {
		if !v.Completed {
			return v, true
		}
	}
	for _, v := range videos {
		if !v.Completed {
			return v, true
		}
	}
	return models.Video{}, false
}

// Contains reports whether videoID belongs to the video set
func Contains(videos []models.Video, videoID int) bool {
	for _, v := range videos {
		if v.ID == videoID {
			return true
		}
	}
	return false
}
