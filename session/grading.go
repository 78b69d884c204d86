package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/srvcerror"
	"github.com/programme-lv/classroom/structure"
)

type Mode string

const (
	ModeExisting        Mode = "existing"
	ModeCountOnly       Mode = "count_only"
	ModeUniformSubparts Mode = "uniform_subparts"
	ModeCustomStructure Mode = "custom_structure"
)

type NewSession struct {
	CourseID         int64
	ExerciseID       int64
	TimeLimitMinutes int
	Mode             Mode
	QuestionCount    int
	SubpartsCount    int
	// Structure is used by ModeCustomStructure.
	Structure *structure.Structure
}

// CreateSession opens an active session in a course the assistant is
// assigned to.
func (s *SessionSrvc) CreateSession(ctx context.Context, assistantID int64, in NewSession) (Session, error) {
	log := logger.FromContext(ctx)

	c, err := s.courses.GetCourse(ctx, in.CourseID)
	if err != nil {
		var srvcErr *srvcerror.Error
		if errors.As(err, &srvcErr) {
			return Session{}, newErrNotAssigned()
		}
		return Session{}, err
	}
	assigned, err := s.courses.IsAssistantAssigned(ctx, c.ID, assistantID)
	if err != nil {
		return Session{}, err
	}
	if !assigned {
		return Session{}, newErrNotAssigned()
	}

	sess := Session{
		AssistantID:      assistantID,
		CourseID:         c.ID,
		TimeLimitMinutes: max(0, in.TimeLimitMinutes),
		Status:           StatusActive,
	}
	questionsInExercise := 0
	if in.ExerciseID > 0 {
		e, err := s.courses.GetExercise(ctx, in.ExerciseID)
		if err != nil {
			return Session{}, err
		}
		if e.CourseID != c.ID {
			return Session{}, newErrExerciseNotFound()
		}
		sess.ExerciseID = &e.ID
		sess.Title = e.Title
		questionsInExercise = e.QuestionsCount
	}

	switch in.Mode {
	case ModeExisting:
		if sess.ExerciseID == nil {
			return Session{}, srvcerror.ErrValidation("No exercise selected for existing mode")
		}
		sess.Structure = structure.FromCounts(questionsInExercise, 0)
	case ModeCountOnly:
		if in.QuestionCount <= 0 {
			return Session{}, srvcerror.ErrValidation("question_count must be > 0")
		}
		sess.Structure = structure.FromCounts(in.QuestionCount, 0)
	case ModeUniformSubparts:
		if in.QuestionCount <= 0 || in.SubpartsCount <= 0 {
			return Session{}, srvcerror.ErrValidation("question_count and subparts_count must be > 0")
		}
		sess.Structure = structure.FromCounts(in.QuestionCount, in.SubpartsCount)
	case ModeCustomStructure:
		if in.Structure == nil {
			return Session{}, srvcerror.ErrValidation("structure with questions required")
		}
		st, err := in.Structure.Normalize()
		if err != nil {
			return Session{}, err
		}
		sess.Structure = st
	default:
		return Session{}, newErrInvalidMode()
	}

	at := now()
	sess.StartedAt = &at
	for attempt := 1; ; attempt++ {
		slug, err := s.newSlug()
		if err != nil {
			return Session{}, fmt.Errorf("failed to generate slug: %w", err)
		}
		sess.Slug = slug
		created, err := s.repo.CreateSession(ctx, sess)
		if errors.Is(err, errSlugTaken) && attempt < slugAttempts {
			log.Debug("slug collision, retrying", "slug", slug, "attempt", attempt)
			continue
		}
		if err != nil {
			return Session{}, fmt.Errorf("failed to create session: %w", err)
		}
		log.Info("session created",
			"session_id", created.ID, "slug", created.Slug, "course_id", created.CourseID,
			"mode", in.Mode, "checkable", created.Structure.Count())
		return created, nil
	}
}

// UpdateStructure replaces the structure of the session with the slug.
func (s *SessionSrvc) UpdateStructure(ctx context.Context, slug string, st structure.Structure) (*Session, error) {
	sess, err := s.GetSession(ctx, slug)
	if err != nil {
		return nil, err
	}
	normalized, err := st.Normalize()
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStructure(ctx, sess.ID, normalized); err != nil {
		return nil, fmt.Errorf("failed to update structure: %w", err)
	}
	sess.Structure = normalized
	return sess, nil
}

// PublicSession returns the session only while it accepts submissions.
func (s *SessionSrvc) PublicSession(ctx context.Context, slug string) (*Session, error) {
	sess, err := s.repo.GetSessionBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil || sess.Status != StatusActive {
		return nil, newErrSessionNotActive()
	}
	return sess, nil
}

type PublicSubmission struct {
	Slug      string
	StudentID string
	Answers   []json.RawMessage
	// ExpectedVersion, when set, must match the stored submission version.
	ExpectedVersion *int
}

// SubmitPublic records the answers of a known student in an active
// session. The student's canonical id and name replace whatever the form
// sent, and a resubmission overwrites the previous answers.
func (s *SessionSrvc) SubmitPublic(ctx context.Context, in PublicSubmission) (Submission, error) {
	log := logger.FromContext(ctx)

	st, err := s.accounts.FindStudentByStudentID(ctx, in.StudentID)
	if err != nil {
		return Submission{}, err
	}
	if st == nil {
		return Submission{}, newErrInvalidStudentID()
	}
	sess, err := s.PublicSession(ctx, in.Slug)
	if err != nil {
		return Submission{}, err
	}

	answers := in.Answers
	if answers == nil {
		answers = []json.RawMessage{}
	}
	sub, err := s.repo.UpsertSubmission(ctx, Submission{
		SessionID:         sess.ID,
		StudentID:         st.StudentID,
		StudentName:       st.Name,
		Answers:           answers,
		TotalCheckedCount: len(answers),
	}, in.ExpectedVersion)
	if errors.Is(err, errVersionMismatch) {
		return Submission{}, newErrConcurrentUpdate()
	}
	if err != nil {
		return Submission{}, fmt.Errorf("failed to save submission: %w", err)
	}

	if checkable := sess.Structure.Count(); checkable > 0 && sub.TotalCheckedCount > checkable {
		log.Warn("submission reports more checks than checkable paths",
			"submission_id", sub.ID, "checked", sub.TotalCheckedCount, "checkable", checkable)
	}
	return sub, nil
}

// ListSubmissions returns the session's submissions, newest first, with
// evidence links.
func (s *SessionSrvc) ListSubmissions(ctx context.Context, slug string) ([]Submission, error) {
	sess, err := s.GetSession(ctx, slug)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubmissions(ctx, []int64{sess.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	s.withEvidenceURLs(ctx, subs)
	return subs, nil
}

type Metrics struct {
	TotalSubmissions   int
	TotalCheckable     int
	TotalChecks        int
	PercentCompleteAvg float64
	// OverReported counts submissions claiming more checks than there are
	// checkable paths.
	OverReported int
}

func (s *SessionSrvc) Metrics(ctx context.Context, slug string) (Metrics, error) {
	sess, err := s.GetSession(ctx, slug)
	if err != nil {
		return Metrics{}, err
	}
	subs, err := s.repo.ListSubmissions(ctx, []int64{sess.ID})
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to list submissions: %w", err)
	}
	return computeMetrics(sess.Structure.Count(), subs), nil
}

func computeMetrics(checkable int, subs []Submission) Metrics {
	m := Metrics{TotalSubmissions: len(subs), TotalCheckable: checkable}
	for _, sub := range subs {
		m.TotalChecks += sub.TotalCheckedCount
		if checkable > 0 && sub.TotalCheckedCount > checkable {
			m.OverReported++
		}
	}
	if m.TotalSubmissions > 0 && checkable > 0 {
		pct := float64(m.TotalChecks) / float64(m.TotalSubmissions*checkable) * 100
		m.PercentCompleteAvg = math.Round(pct*10) / 10
	}
	return m
}

// GradeClose stores the grades, closes the session and stamps its
// exercise. Entries for students without a submission are skipped.
func (s *SessionSrvc) GradeClose(ctx context.Context, assistantID int64, slug string, grades []Grade) (int, *Session, error) {
	sess, err := s.ownedSession(ctx, assistantID, slug, 0)
	if err != nil {
		return 0, nil, err
	}

	kept := make([]Grade, 0, len(grades))
	for _, g := range grades {
		g.StudentID = strings.TrimSpace(g.StudentID)
		if g.StudentID == "" {
			continue
		}
		if g.GroupIndex != nil && *g.GroupIndex < 0 {
			return 0, nil, srvcerror.ErrValidation("group_index must be >= 0")
		}
		kept = append(kept, g)
	}

	at := now()
	updated, err := s.repo.CloseSession(ctx, sess.ID, kept, at, false)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to close session: %w", err)
	}
	sess.Status = StatusClosed
	sess.EndedAt = &at

	logger.FromContext(ctx).Info("session graded and closed",
		"session_id", sess.ID, "slug", sess.Slug, "graded", updated, "entries", len(kept))
	return updated, sess, nil
}

// EndDelete closes the session, stamps its exercise and deletes it. It
// returns the close time.
func (s *SessionSrvc) EndDelete(ctx context.Context, assistantID int64, slug string, sessionID int64) (time.Time, error) {
	sess, err := s.ownedSession(ctx, assistantID, slug, sessionID)
	if err != nil {
		return time.Time{}, err
	}
	at := now()
	if _, err := s.repo.CloseSession(ctx, sess.ID, nil, at, true); err != nil {
		return time.Time{}, fmt.Errorf("failed to end session: %w", err)
	}
	logger.FromContext(ctx).Info("session ended and deleted", "session_id", sess.ID, "slug", sess.Slug)
	return at, nil
}
