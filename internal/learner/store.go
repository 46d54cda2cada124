// Package learner holds the client-side enrollment state machine and progress tracker.
//
// The server is authoritative. The learner side only caches what successful calls
// returned, one snapshot per course, and never merges partial results into it.
package learner

import (
	"sync"
	"sync/atomic"

	"github.com/learnportal/backend/internal/enrollment"
	"github.com/learnportal/backend/internal/models"
)

// Store keeps the per-course snapshots shared by EnrollmentMachine and ProgressTracker
//
// Every fetch takes a ticket when it starts. A result is applied only when no fetch
// with a later ticket has already been applied to the same course resource, so a
// slow response can never overwrite a newer one.
type Store struct {
	mu      sync.Mutex
	courses map[int]*courseState
	tickets atomic.Uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{courses: map[int]*courseState{}}
}

// courseState is the snapshot of a single course, guarded by its own mutex
type courseState struct {
	mu           sync.Mutex
	record       models.EnrollmentRecord
	recordTicket uint64
	videos       []models.Video
	videosTicket uint64
}

func (s *Store) course(courseID int) *courseState {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.courses[courseID]
	if !ok {
		cs = &courseState{record: notEnrolled(courseID)}
		s.courses[courseID] = cs
	}
	return cs
}

func (s *Store) ticket() uint64 {
	return s.tickets.Add(1)
}

func notEnrolled(courseID int) models.EnrollmentRecord {
	return models.EnrollmentRecord{CourseID: courseID, Status: models.EnrollmentStatusNotEnrolled}
}

// applyRecord stores rec unless a later fetch was applied, and returns the cached record
func (cs *courseState) applyRecord(ticket uint64, rec models.EnrollmentRecord) models.EnrollmentRecord {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if ticket > cs.recordTicket {
		cs.record = rec
		cs.recordTicket = ticket
	}
	return cs.record
}

// applyTransition stores rec returned by a transition call.
//
// The edge is checked against the record cached at apply time, not the one the call
// started from, since a status check may have landed in between. A superseded rec
// is dropped without a check and the cached record is returned.
func (cs *courseState) applyTransition(ticket uint64, rec models.EnrollmentRecord) (models.EnrollmentRecord, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if ticket <= cs.recordTicket {
		return cs.record, nil
	}
	already := cs.record.Status == rec.Status && rec.Status != models.EnrollmentStatusNotEnrolled
	if !already {
		if err := enrollment.Transition(cs.record.Status, rec.Status); err != nil {
			return cs.record, err
		}
	}
	cs.record = rec
	cs.recordTicket = ticket
	return cs.record, nil
}

func (cs *courseState) currentRecord() models.EnrollmentRecord {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.record
}

// applyVideos replaces the video snapshot unless a later fetch was applied, and returns a copy of the cached list
func (cs *courseState) applyVideos(ticket uint64, videos []models.Video) []models.Video {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if ticket > cs.videosTicket {
		cs.videos = append([]models.Video(nil), videos...)
		cs.videosTicket = ticket
	}
	return append([]models.Video(nil), cs.videos...)
}

func (cs *courseState) currentVideos() []models.Video {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]models.Video(nil), cs.videos...)
}

// loadedVideos returns a copy of the cached list and whether any fetch was applied yet
func (cs *courseState) loadedVideos() ([]models.Video, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]models.Video(nil), cs.videos...), cs.videosTicket > 0
}
