package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/logger"
)

type CourseSrvcFacade interface {
	GetCourse(ctx context.Context, id int64) (*course.Course, error)
	GetCourses(ctx context.Context, ids []int64) ([]course.Course, error)
	GetExercise(ctx context.Context, id int64) (*course.Exercise, error)
	ListExercises(ctx context.Context, courseIDs []int64) ([]course.Exercise, error)
	ListTeacherCourses(ctx context.Context, teacherID int64) ([]course.Course, error)
	IsAssistantAssigned(ctx context.Context, courseID int64, assistantID int64) (bool, error)
}

type AccountSrvcFacade interface {
	ResolveAssistant(ctx context.Context, ref account.AssistantRef) (*account.Assistant, error)
	ResolveTeacher(ctx context.Context, ref account.TeacherRef) (*account.Teacher, error)
	GetStudent(ctx context.Context, id int64) (*account.Student, error)
	FindStudentByStudentID(ctx context.Context, studentID string) (*account.Student, error)
}

// EvidenceBucket stores uploaded evidence files. Both s3bucket.S3Bucket
// and s3bucket.MemBucket satisfy it.
type EvidenceBucket interface {
	Upload(ctx context.Context, content []byte, key string, mediaType string) (string, error)
	PresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Options struct {
	// PublicBaseURL prefixes the student form link of a session.
	PublicBaseURL string
	// AllowEvidenceReopen lets an upload reset a decided submission back to
	// pending review.
	AllowEvidenceReopen bool
}

type SessionSrvc struct {
	repo     SessionRepo
	courses  CourseSrvcFacade
	accounts AccountSrvcFacade
	evidence EvidenceBucket
	opts     Options
	newSlug  func() (string, error)
}

func NewSessionSrvc(
	repo SessionRepo,
	courses CourseSrvcFacade,
	accounts AccountSrvcFacade,
	evidence EvidenceBucket,
	opts Options,
) *SessionSrvc {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &SessionSrvc{
		repo:     repo,
		courses:  courses,
		accounts: accounts,
		evidence: evidence,
		opts:     opts,
		newSlug:  randomSlug,
	}
}

const (
	slugLength   = 10
	slugAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	slugAttempts = 5
)

func randomSlug() (string, error) {
	b := make([]byte, slugLength)
	limit := big.NewInt(int64(len(slugAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}

// PublicURL is the link students open to fill in the session form.
func (s *SessionSrvc) PublicURL(slug string) string {
	return fmt.Sprintf("%s/assistants/session/%s/form/", s.opts.PublicBaseURL, slug)
}

func (s *SessionSrvc) Assistant(ctx context.Context, ref account.AssistantRef) (*account.Assistant, error) {
	return s.accounts.ResolveAssistant(ctx, ref)
}

func (s *SessionSrvc) Teacher(ctx context.Context, ref account.TeacherRef) (*account.Teacher, error) {
	return s.accounts.ResolveTeacher(ctx, ref)
}

// GetSession returns the session with the slug in any status.
func (s *SessionSrvc) GetSession(ctx context.Context, slug string) (*Session, error) {
	sess, err := s.repo.GetSessionBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, newErrSessionNotFound()
	}
	return sess, nil
}

// ownedSession finds a session of the assistant by slug, then by id when
// the slug is blank or matches none of the assistant's sessions.
func (s *SessionSrvc) ownedSession(ctx context.Context, assistantID int64, slug string, id int64) (*Session, error) {
	owned := func(sess *Session) bool {
		return sess != nil && sess.AssistantID == assistantID
	}
	if slug = strings.TrimSpace(slug); slug != "" {
		sess, err := s.repo.GetSessionBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if owned(sess) {
			return sess, nil
		}
	}
	if id > 0 {
		sess, err := s.repo.GetSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if owned(sess) {
			return sess, nil
		}
	}
	return nil, newErrSessionNotFound()
}

// SessionSummary is a session with its course and exercise for listings.
type SessionSummary struct {
	Session
	Course   *course.Course
	Exercise *course.Exercise
}

// ListAssistantSessions returns the assistant's sessions in the given
// status, most recently ended or started first.
func (s *SessionSrvc) ListAssistantSessions(ctx context.Context, assistantID int64, status Status) ([]SessionSummary, error) {
	ss, err := s.repo.ListSessionsByAssistant(ctx, assistantID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return s.summarize(ctx, ss)
}

func (s *SessionSrvc) summarize(ctx context.Context, ss []Session) ([]SessionSummary, error) {
	out := make([]SessionSummary, 0, len(ss))
	if len(ss) == 0 {
		return out, nil
	}

	seen := make(map[int64]bool)
	var courseIDs []int64
	for _, sess := range ss {
		if !seen[sess.CourseID] {
			seen[sess.CourseID] = true
			courseIDs = append(courseIDs, sess.CourseID)
		}
	}
	cs, err := s.courses.GetCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	es, err := s.courses.ListExercises(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	courseByID := make(map[int64]*course.Course, len(cs))
	for i := range cs {
		courseByID[cs[i].ID] = &cs[i]
	}
	exByID := make(map[int64]*course.Exercise, len(es))
	for i := range es {
		exByID[es[i].ID] = &es[i]
	}

	for _, sess := range ss {
		sum := SessionSummary{Session: sess, Course: courseByID[sess.CourseID]}
		if sess.ExerciseID != nil {
			sum.Exercise = exByID[*sess.ExerciseID]
		}
		out = append(out, sum)
	}
	return out, nil
}

// ListSessionsByCourses lists every session of the courses with its
// submissions grouped by session id.
func (s *SessionSrvc) ListSessionsByCourses(ctx context.Context, courseIDs []int64) ([]Session, map[int64][]Submission, error) {
	subs := make(map[int64][]Submission)
	if len(courseIDs) == 0 {
		return nil, subs, nil
	}
	ss, err := s.repo.ListSessionsByCourses(ctx, courseIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list course sessions: %w", err)
	}
	if len(ss) == 0 {
		return ss, subs, nil
	}
	ids := make([]int64, 0, len(ss))
	for _, sess := range ss {
		ids = append(ids, sess.ID)
	}
	all, err := s.repo.ListSubmissions(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	for _, sub := range all {
		subs[sub.SessionID] = append(subs[sub.SessionID], sub)
	}
	return ss, subs, nil
}

// StudentSubmission is a submission together with its session.
type StudentSubmission struct {
	Submission
	Session Session
}

// ListStudentSubmissions returns the student's submissions, newest first.
// Submissions of deleted sessions are not returned.
func (s *SessionSrvc) ListStudentSubmissions(ctx context.Context, studentID string) ([]StudentSubmission, error) {
	subs, err := s.repo.ListSubmissionsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}
	out := make([]StudentSubmission, 0, len(subs))
	if len(subs) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.SessionID)
	}
	ss, err := s.repo.GetSessions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	byID := make(map[int64]Session, len(ss))
	for _, sess := range ss {
		byID[sess.ID] = sess
	}
	for _, sub := range subs {
		if sess, ok := byID[sub.SessionID]; ok {
			out = append(out, StudentSubmission{Submission: sub, Session: sess})
		}
	}
	return out, nil
}

func (s *SessionSrvc) withEvidenceURLs(ctx context.Context, subs []Submission) {
	for i := range subs {
		if subs[i].EvidenceFile == "" {
			continue
		}
		url, err := s.evidence.PresignedURL(ctx, subs[i].EvidenceFile, evidenceURLTTL)
		if err != nil {
			logger.FromContext(ctx).Warn("failed to presign evidence url",
				"submission_id", subs[i].ID, "error", err)
			continue
		}
		subs[i].EvidenceURL = url
	}
}

// now is truncated to what Postgres stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
