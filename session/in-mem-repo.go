package session

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/programme-lv/classroom/structure"
)

// ExerciseStamper closes an exercise the way a session close does. The
// course repository satisfies it.
type ExerciseStamper interface {
	StampExerciseClosed(ctx context.Context, id int64, at time.Time) error
}

type inMemRepo struct {
	mu          sync.RWMutex
	nextID      int64
	sessions    map[int64]Session
	submissions map[int64]Submission
	exercises   ExerciseStamper
}

// NewInMemRepo returns a SessionRepo backed by maps. Closing a session
// stamps its exercise through exercises when it is not nil.
func NewInMemRepo(exercises ExerciseStamper) SessionRepo {
	return &inMemRepo{
		sessions:    make(map[int64]Session),
		submissions: make(map[int64]Submission),
		exercises:   exercises,
	}
}

func (r *inMemRepo) newID() int64 {
	r.nextID++
	return r.nextID
}

// now keeps timestamps strictly increasing within a test.
func (r *inMemRepo) now() time.Time {
	r.nextID++
	return time.Now().Add(time.Duration(r.nextID) * time.Microsecond)
}

func timeDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}

func (r *inMemRepo) CreateSession(ctx context.Context, s Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.Slug == s.Slug {
			return Session{}, errSlugTaken
		}
	}
	s.ID = r.newID()
	s.CreatedAt = r.now()
	r.sessions[s.ID] = s
	return s, nil
}

func (r *inMemRepo) GetSession(ctx context.Context, id int64) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *inMemRepo) GetSessionBySlug(ctx context.Context, slug string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.Slug == slug {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *inMemRepo) GetSessions(ctx context.Context, ids []int64) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Session
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *inMemRepo) sorted(keep func(Session) bool) []Session {
	var out []Session
	for _, s := range r.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Session) int {
		if c := timeDesc(a.EndedAt, b.EndedAt); c != 0 {
			return c
		}
		if c := timeDesc(a.StartedAt, b.StartedAt); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (r *inMemRepo) ListSessionsByAssistant(ctx context.Context, assistantID int64, status Status) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(s Session) bool {
		return s.AssistantID == assistantID && s.Status == status
	}), nil
}

func (r *inMemRepo) ListSessionsByCourses(ctx context.Context, courseIDs []int64) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(s Session) bool {
		return slices.Contains(courseIDs, s.CourseID)
	}), nil
}

func (r *inMemRepo) UpdateStructure(ctx context.Context, id int64, st structure.Structure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("session %d not found", id)
	}
	s.Structure = st
	r.sessions[id] = s
	return nil
}

func (r *inMemRepo) CloseSession(ctx context.Context, id int64, grades []Grade, at time.Time, deleteAfter bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return 0, fmt.Errorf("session %d not found", id)
	}

	updated := 0
	for _, g := range grades {
		for subID, sub := range r.submissions {
			if sub.SessionID != id || !sameStudent(sub.StudentID, g.StudentID) {
				continue
			}
			sub.Score = g.Score
			sub.GroupIndex = g.GroupIndex
			sub.UpdatedAt = r.now()
			r.submissions[subID] = sub
			updated++
			break
		}
	}

	if s.ExerciseID != nil && r.exercises != nil {
		if err := r.exercises.StampExerciseClosed(ctx, *s.ExerciseID, at); err != nil {
			return 0, err
		}
	}

	if deleteAfter {
		delete(r.sessions, id)
		for subID, sub := range r.submissions {
			if sub.SessionID == id {
				delete(r.submissions, subID)
			}
		}
		return updated, nil
	}
	s.Status = StatusClosed
	s.EndedAt = &at
	r.sessions[id] = s
	return updated, nil
}

func (r *inMemRepo) UpsertSubmission(ctx context.Context, sub Submission, expectedVersion *int) (Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, existing := range r.submissions {
		if existing.SessionID != sub.SessionID || existing.StudentID != sub.StudentID {
			continue
		}
		if expectedVersion != nil && existing.Version != *expectedVersion {
			return Submission{}, errVersionMismatch
		}
		existing.StudentName = sub.StudentName
		existing.Answers = sub.Answers
		existing.TotalCheckedCount = sub.TotalCheckedCount
		existing.Version++
		existing.UpdatedAt = now
		r.submissions[id] = existing
		return existing, nil
	}
	sub.ID = r.newID()
	sub.Version = 1
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.submissions[sub.ID] = sub
	return sub, nil
}

func (r *inMemRepo) GetSubmission(ctx context.Context, id int64) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (r *inMemRepo) FindSubmission(ctx context.Context, sessionID int64, studentID string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.submissions {
		if sub.SessionID == sessionID && sameStudent(sub.StudentID, studentID) {
			return &sub, nil
		}
	}
	return nil, nil
}

func (r *inMemRepo) sortedSubmissions(keep func(Submission) bool) []Submission {
	var out []Submission
	for _, sub := range r.submissions {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b Submission) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (r *inMemRepo) ListSubmissions(ctx context.Context, sessionIDs []int64) ([]Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedSubmissions(func(sub Submission) bool {
		return slices.Contains(sessionIDs, sub.SessionID)
	}), nil
}

func (r *inMemRepo) ListSubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedSubmissions(func(sub Submission) bool {
		return sameStudent(sub.StudentID, studentID)
	}), nil
}

func (r *inMemRepo) update(id int64, fn func(*Submission) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return false, fmt.Errorf("submission %d not found", id)
	}
	if !fn(&sub) {
		return false, nil
	}
	sub.UpdatedAt = r.now()
	r.submissions[id] = sub
	return true, nil
}

func (r *inMemRepo) RequestEvidence(ctx context.Context, id int64, at time.Time) error {
	_, err := r.update(id, func(sub *Submission) bool {
		sub.EvidenceRequestedAt = &at
		return true
	})
	return err
}

func (r *inMemRepo) ReceiveEvidence(ctx context.Context, id int64, file string, at time.Time, reopen bool) (bool, error) {
	return r.update(id, func(sub *Submission) bool {
		if !reopen && sub.EvidenceDecision != DecisionPending {
			return false
		}
		sub.EvidenceFile = file
		sub.EvidenceReceivedAt = &at
		sub.EvidenceDecision = DecisionPending
		return true
	})
}

func (r *inMemRepo) DecideEvidence(ctx context.Context, id int64, decision Decision, score *int, at time.Time) (bool, error) {
	return r.update(id, func(sub *Submission) bool {
		if sub.EvidenceDecision != DecisionPending {
			return false
		}
		sub.EvidenceDecision = decision
		sub.EvidenceReviewedAt = &at
		if score != nil {
			sub.Score = score
		}
		return true
	})
}
