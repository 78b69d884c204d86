package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/s3bucket"
	"github.com/programme-lv/classroom/session"
	"github.com/programme-lv/classroom/srvcerror"
	"github.com/programme-lv/classroom/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	accounts  *account.AccountSrvc
	courses   *course.CourseSrvc
	sessions  *session.SessionSrvc
	bucket    *s3bucket.MemBucket
	teacher   int64
	assistant int64
	student   account.Student
	course    course.Course
	exercise  course.Exercise
}

type fixtureConfig struct {
	opts   session.Options
	bucket func(*s3bucket.MemBucket) session.EvidenceBucket
}

type fixtureOpt func(*fixtureConfig)

func withReopen(c *fixtureConfig) { c.opts.AllowEvidenceReopen = true }

func withBucket(wrap func(*s3bucket.MemBucket) session.EvidenceBucket) fixtureOpt {
	return func(c *fixtureConfig) { c.bucket = wrap }
}

func newFixture(t *testing.T, opts ...fixtureOpt) fixture {
	t.Helper()
	ctx := context.Background()

	accounts := account.NewAccountSrvc(account.NewInMemRepo(), nil, "")
	_, err := accounts.CreateTeacherCode(ctx, "Math", "Math 101", "MATH-101")
	require.NoError(t, err)
	res, err := accounts.RegisterTeacher(ctx, account.TeacherSignup{SpecialCode: "MATH-101", Email: "t@school.lv"})
	require.NoError(t, err)
	ta, err := accounts.CreateAssistant(ctx, account.NewAssistant{Name: "Ta", SpecialCode: "TA-1", Email: "ta@school.lv"})
	require.NoError(t, err)
	st, err := accounts.CreateStudent(ctx, account.NewStudent{Name: "Anna", Email: "a@s.lv", StudentID: "S-1", Password: "pw"})
	require.NoError(t, err)

	courseRepo := course.NewInMemRepo()
	courses := course.NewCourseSrvc(courseRepo, accounts)
	c, err := courses.CreateCourse(ctx, res.TeacherID, "Algebra", "")
	require.NoError(t, err)
	e, _, err := courses.CreateExercise(ctx, res.TeacherID, course.NewExercise{
		CourseID:  c.ID,
		Title:     "Homework 1",
		Questions: []course.NewQuestion{{Text: "one", Points: 2}, {Text: "two", Points: 3}},
	})
	require.NoError(t, err)
	_, err = courses.AssignAssistant(ctx, res.TeacherID, c.ID, ta.ID)
	require.NoError(t, err)

	cfg := fixtureConfig{opts: session.Options{PublicBaseURL: "https://class.example/"}}
	for _, opt := range opts {
		opt(&cfg)
	}
	bucket := s3bucket.NewMemBucket("https://files.example")
	var evidence session.EvidenceBucket = bucket
	if cfg.bucket != nil {
		evidence = cfg.bucket(bucket)
	}
	sessions := session.NewSessionSrvc(session.NewInMemRepo(courseRepo), courses, accounts, evidence, cfg.opts)

	return fixture{
		accounts:  accounts,
		courses:   courses,
		sessions:  sessions,
		bucket:    bucket,
		teacher:   res.TeacherID,
		assistant: ta.ID,
		student:   st,
		course:    c,
		exercise:  e,
	}
}

func requireErrCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	var srvcErr *srvcerror.Error
	require.True(t, errors.As(err, &srvcErr), "expected service error, got %v", err)
	assert.Equal(t, code, srvcErr.ErrorCode())
	assert.Equal(t, status, srvcErr.HttpStatusCode())
}

func answers(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(`{"path":"Q1","checked":true}`)
	}
	return out
}

func (f fixture) countOnly(t *testing.T, n int) session.Session {
	t.Helper()
	sess, err := f.sessions.CreateSession(context.Background(), f.assistant, session.NewSession{
		CourseID:      f.course.ID,
		ExerciseID:    f.exercise.ID,
		Mode:          session.ModeCountOnly,
		QuestionCount: n,
	})
	require.NoError(t, err)
	return sess
}

func TestCreateSessionModes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess := f.countOnly(t, 3)
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, sess.Structure.CheckablePaths())
	assert.Equal(t, session.StatusActive, sess.Status)
	assert.Equal(t, "Homework 1", sess.DisplayTitle())
	assert.Len(t, sess.Slug, 10)
	require.NotNil(t, sess.StartedAt)
	assert.Equal(t, "https://class.example/assistants/session/"+sess.Slug+"/form/", f.sessions.PublicURL(sess.Slug))

	sess, err := f.sessions.CreateSession(ctx, f.assistant, session.NewSession{
		CourseID:      f.course.ID,
		Mode:          session.ModeUniformSubparts,
		QuestionCount: 2,
		SubpartsCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1.a", "Q1.b", "Q2.a", "Q2.b"}, sess.Structure.CheckablePaths())
	assert.Equal(t, "Session", sess.DisplayTitle())

	sess, err = f.sessions.CreateSession(ctx, f.assistant, session.NewSession{
		CourseID:   f.course.ID,
		ExerciseID: f.exercise.ID,
		Mode:       session.ModeExisting,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2"}, sess.Structure.CheckablePaths())

	sess, err = f.sessions.CreateSession(ctx, f.assistant, session.NewSession{
		CourseID: f.course.ID,
		Mode:     session.ModeCustomStructure,
		Structure: &structure.Structure{Questions: []structure.Node{
			{Label: " 1 ", Children: []structure.Node{{Label: "a"}, {Label: "b", Children: []structure.Node{{Label: "i"}}}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.a", "1.b.i"}, sess.Structure.CheckablePaths())
}

func TestCreateSessionRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.sessions.CreateSession(ctx, f.assistant, session.NewSession{CourseID: f.course.ID, Mode: session.ModeExisting})
	requireErrCode(t, err, srvcerror.ErrCodeValidation, 400)

	_, err = f.sessions.CreateSession(ctx, f.assistant, session.NewSession{CourseID: f.course.ID, Mode: session.ModeCountOnly})
	requireErrCode(t, err, srvcerror.ErrCodeValidation, 400)

	_, err = f.sessions.CreateSession(ctx, f.assistant, session.NewSession{CourseID: f.course.ID, Mode: "bogus"})
	requireErrCode(t, err, session.ErrCodeInvalidMode, 400)

	_, err = f.sessions.CreateSession(ctx, f.assistant+100, session.NewSession{CourseID: f.course.ID, Mode: session.ModeCountOnly, QuestionCount: 1})
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)

	_, err = f.sessions.CreateSession(ctx, f.assistant, session.NewSession{CourseID: 9999, Mode: session.ModeCountOnly, QuestionCount: 1})
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)

	other, err := f.courses.CreateCourse(ctx, f.teacher, "Geometry", "")
	require.NoError(t, err)
	foreign, _, err := f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: other.ID, Title: "x"})
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, f.assistant, session.NewSession{
		CourseID: f.course.ID, ExerciseID: foreign.ID, Mode: session.ModeCountOnly, QuestionCount: 1,
	})
	requireErrCode(t, err, session.ErrCodeExerciseNotFound, 404)
}

func TestSubmitTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 3)

	first, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "s-1", Answers: answers(1)})
	require.NoError(t, err)
	assert.Equal(t, "S-1", first.StudentID)
	assert.Equal(t, "Anna", first.StudentName)
	assert.Equal(t, 1, first.Version)

	second, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(2)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Version)

	subs, err := f.sessions.ListSubmissions(ctx, sess.Slug)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 2, subs[0].TotalCheckedCount)
	assert.Len(t, subs[0].Answers, 2)

	stale := 1
	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(3), ExpectedVersion: &stale})
	requireErrCode(t, err, session.ErrCodeConcurrentUpdate, 409)

	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "nobody", Answers: answers(1)})
	requireErrCode(t, err, session.ErrCodeInvalidStudentID, 404)

	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: "missing", StudentID: "S-1"})
	requireErrCode(t, err, session.ErrCodeSessionNotActive, 404)
}

func TestMetricsCountOverReporting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.accounts.CreateStudent(ctx, account.NewStudent{Name: "Berta", Email: "b@s.lv", StudentID: "S-2", Password: "pw"})
	require.NoError(t, err)
	sess := f.countOnly(t, 4)

	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(2)})
	require.NoError(t, err)
	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-2", Answers: answers(5)})
	require.NoError(t, err)

	m, err := f.sessions.Metrics(ctx, sess.Slug)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalSubmissions)
	assert.Equal(t, 4, m.TotalCheckable)
	assert.Equal(t, 7, m.TotalChecks)
	assert.Equal(t, 87.5, m.PercentCompleteAvg)
	assert.Equal(t, 1, m.OverReported)
}

func TestGradeCloseStampsExercise(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 2)
	_, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(2)})
	require.NoError(t, err)

	score, group := 8, 1
	updated, closed, err := f.sessions.GradeClose(ctx, f.assistant, sess.Slug, []session.Grade{
		{StudentID: "s-1", Score: &score, GroupIndex: &group},
		{StudentID: "GHOST", Score: &score},
		{StudentID: "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, session.StatusClosed, closed.Status)
	require.NotNil(t, closed.EndedAt)

	e, err := f.courses.GetExercise(ctx, f.exercise.ID)
	require.NoError(t, err)
	require.NotNil(t, e.Deadline)
	assert.True(t, e.Deadline.Equal(*closed.EndedAt))

	subs, err := f.sessions.ListSubmissions(ctx, sess.Slug)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, &score, subs[0].Score)
	assert.Equal(t, &group, subs[0].GroupIndex)

	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1"})
	requireErrCode(t, err, session.ErrCodeSessionNotActive, 404)

	closedList, err := f.sessions.ListAssistantSessions(ctx, f.assistant, session.StatusClosed)
	require.NoError(t, err)
	require.Len(t, closedList, 1)
	assert.Equal(t, f.course.ID, closedList[0].Course.ID)
	assert.Equal(t, f.exercise.ID, closedList[0].Exercise.ID)
}

func TestGradeCloseRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 2)

	_, _, err := f.sessions.GradeClose(ctx, f.assistant+1, sess.Slug, nil)
	requireErrCode(t, err, session.ErrCodeSessionNotFound, 404)

	neg := -1
	_, _, err = f.sessions.GradeClose(ctx, f.assistant, sess.Slug, []session.Grade{{StudentID: "S-1", GroupIndex: &neg}})
	requireErrCode(t, err, srvcerror.ErrCodeValidation, 400)
}

func TestEndDeleteRemovesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 2)
	_, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(1)})
	require.NoError(t, err)

	endedAt, err := f.sessions.EndDelete(ctx, f.assistant, "", sess.ID)
	require.NoError(t, err)

	_, err = f.sessions.GetSession(ctx, sess.Slug)
	requireErrCode(t, err, session.ErrCodeSessionNotFound, 404)

	e, err := f.courses.GetExercise(ctx, f.exercise.ID)
	require.NoError(t, err)
	require.NotNil(t, e.Deadline)
	assert.True(t, e.Deadline.Equal(endedAt))

	subs, err := f.sessions.ListStudentSubmissions(ctx, "S-1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestEndDeleteFallsBackToID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 1)

	_, err := f.sessions.EndDelete(ctx, f.assistant, "unknown-slug", 0)
	requireErrCode(t, err, session.ErrCodeSessionNotFound, 404)

	_, err = f.sessions.EndDelete(ctx, f.assistant, "unknown-slug", sess.ID)
	require.NoError(t, err)

	_, err = f.sessions.GetSession(ctx, sess.Slug)
	requireErrCode(t, err, session.ErrCodeSessionNotFound, 404)
}

func TestEndDeleteIgnoresForeignSlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 1)

	_, err := f.sessions.EndDelete(ctx, f.assistant+1, sess.Slug, sess.ID)
	requireErrCode(t, err, session.ErrCodeSessionNotFound, 404)

	_, err = f.sessions.GetSession(ctx, sess.Slug)
	require.NoError(t, err)
}

func TestUpdateStructure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 1)

	got, err := f.sessions.UpdateStructure(ctx, sess.Slug, structure.FromCounts(2, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1.a", "Q2.a"}, got.Structure.CheckablePaths())

	_, err = f.sessions.UpdateStructure(ctx, sess.Slug, structure.Structure{})
	requireErrCode(t, err, structure.ErrCodeEmptyStructure, 400)

	_, err = f.sessions.UpdateStructure(ctx, "nope", structure.FromCounts(1, 0))
	requireErrCode(t, err, session.ErrCodeSessionNotFound, 404)
}

func (f fixture) submitWithEvidence(t *testing.T) (session.Session, session.Submission) {
	t.Helper()
	ctx := context.Background()
	sess := f.countOnly(t, 2)
	sub, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(2)})
	require.NoError(t, err)

	_, err = f.sessions.RequestEvidence(ctx, session.Reviewer{AssistantID: f.assistant},
		session.SubmissionRef{Slug: sess.Slug, StudentID: "s-1"})
	require.NoError(t, err)

	url, err := f.sessions.UploadEvidence(ctx, f.student.ID, sub.ID, session.EvidenceFile{
		Content: []byte("%PDF-1.4"), MediaType: "application/pdf", Extension: ".pdf",
	})
	require.NoError(t, err)
	assert.Contains(t, url, "https://files.example/evidence")
	return sess, sub
}

func TestDeclineEvidenceNeedsScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, sub := f.submitWithEvidence(t)
	reviewer := session.Reviewer{AssistantID: f.assistant}

	_, err := f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "decline", nil)
	requireErrCode(t, err, session.ErrCodeNewScoreRequired, 400)

	bad := "seven"
	_, err = f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "decline", &bad)
	requireErrCode(t, err, session.ErrCodeInvalidScore, 400)

	_, err = f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "maybe", nil)
	requireErrCode(t, err, srvcerror.ErrCodeValidation, 400)

	seven := "7"
	got, err := f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "decline", &seven)
	require.NoError(t, err)
	assert.Equal(t, session.DecisionDeclined, got.EvidenceDecision)
	require.NotNil(t, got.Score)
	assert.Equal(t, 7, *got.Score)
	assert.NotNil(t, got.EvidenceReviewedAt)

	_, err = f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "accept", nil)
	requireErrCode(t, err, session.ErrCodeDecisionAlreadyMade, 409)
}

func TestTeacherReviewsEvidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, sub := f.submitWithEvidence(t)

	items, err := f.sessions.TeacherEvidence(ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, sub.ID, items[0].ID)
	assert.True(t, items[0].AwaitingReview())
	assert.NotEmpty(t, items[0].EvidenceURL)

	_, err = f.sessions.DecideEvidence(ctx, session.Reviewer{TeacherID: f.teacher + 50}, sub.ID, "accept", nil)
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)

	got, err := f.sessions.DecideEvidence(ctx, session.Reviewer{TeacherID: f.teacher}, sub.ID, "ACCEPT", nil)
	require.NoError(t, err)
	assert.Equal(t, session.DecisionAccepted, got.EvidenceDecision)
}

func TestDecideRequiresEvidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 1)
	sub, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(1)})
	require.NoError(t, err)
	reviewer := session.Reviewer{AssistantID: f.assistant}

	_, err = f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "accept", nil)
	requireErrCode(t, err, session.ErrCodeEvidenceNotRequested, 400)

	_, err = f.sessions.RequestEvidence(ctx, reviewer, session.SubmissionRef{SubmissionID: sub.ID})
	require.NoError(t, err)
	_, err = f.sessions.DecideEvidence(ctx, reviewer, sub.ID, "accept", nil)
	requireErrCode(t, err, session.ErrCodeEvidenceNotReceived, 400)

	_, err = f.sessions.RequestEvidence(ctx, session.Reviewer{AssistantID: f.assistant + 1}, session.SubmissionRef{SubmissionID: sub.ID})
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)
}

func TestDecideRequiresStoredFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess, sub := f.submitWithEvidence(t)

	subs, err := f.sessions.ListSubmissions(ctx, sess.Slug)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NoError(t, f.bucket.Delete(ctx, subs[0].EvidenceFile))

	_, err = f.sessions.DecideEvidence(ctx, session.Reviewer{AssistantID: f.assistant}, sub.ID, "accept", nil)
	requireErrCode(t, err, session.ErrCodeEvidenceNotReceived, 400)
}

func TestDownloadEvidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.countOnly(t, 1)
	sub, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: sess.Slug, StudentID: "S-1", Answers: answers(1)})
	require.NoError(t, err)
	reviewer := session.Reviewer{AssistantID: f.assistant}

	_, err = f.sessions.DownloadEvidence(ctx, reviewer, sub.ID)
	requireErrCode(t, err, session.ErrCodeEvidenceNotReceived, 400)

	_, err = f.sessions.RequestEvidence(ctx, reviewer, session.SubmissionRef{SubmissionID: sub.ID})
	require.NoError(t, err)
	_, err = f.sessions.UploadEvidence(ctx, f.student.ID, sub.ID, session.EvidenceFile{
		Content: []byte("%PDF-1.4"), MediaType: "application/pdf", Extension: ".pdf",
	})
	require.NoError(t, err)

	got, err := f.sessions.DownloadEvidence(ctx, session.Reviewer{TeacherID: f.teacher}, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got.Content)
	assert.Equal(t, ".pdf", got.Extension)

	_, err = f.sessions.DownloadEvidence(ctx, session.Reviewer{AssistantID: f.assistant + 1}, sub.ID)
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)
}

// racingBucket lets a test act between the upload and the row update.
type racingBucket struct {
	*s3bucket.MemBucket
	keys        []string
	afterUpload func()
}

func (b *racingBucket) Upload(ctx context.Context, content []byte, key string, mediaType string) (string, error) {
	url, err := b.MemBucket.Upload(ctx, content, key, mediaType)
	b.keys = append(b.keys, key)
	if b.afterUpload != nil {
		b.afterUpload()
	}
	return url, err
}

func TestUploadRacingDecisionRemovesFile(t *testing.T) {
	ctx := context.Background()
	var racing *racingBucket
	f := newFixture(t, withBucket(func(mem *s3bucket.MemBucket) session.EvidenceBucket {
		racing = &racingBucket{MemBucket: mem}
		return racing
	}))
	_, sub := f.submitWithEvidence(t)
	require.Len(t, racing.keys, 1)
	first := racing.keys[0]

	racing.afterUpload = func() {
		_, err := f.sessions.DecideEvidence(ctx, session.Reviewer{AssistantID: f.assistant}, sub.ID, "accept", nil)
		require.NoError(t, err)
	}
	_, err := f.sessions.UploadEvidence(ctx, f.student.ID, sub.ID, session.EvidenceFile{
		Content: []byte("png"), MediaType: "image/png", Extension: ".png",
	})
	requireErrCode(t, err, session.ErrCodeDecisionAlreadyMade, 409)
	require.Len(t, racing.keys, 2)

	ok, err := f.bucket.Exists(ctx, racing.keys[1])
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.bucket.Exists(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadAfterDecision(t *testing.T) {
	file := session.EvidenceFile{Content: []byte("png"), MediaType: "image/png", Extension: ".png"}

	t.Run("closed", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t)
		_, sub := f.submitWithEvidence(t)
		_, err := f.sessions.DecideEvidence(ctx, session.Reviewer{AssistantID: f.assistant}, sub.ID, "accept", nil)
		require.NoError(t, err)

		_, err = f.sessions.UploadEvidence(ctx, f.student.ID, sub.ID, file)
		requireErrCode(t, err, session.ErrCodeDecisionAlreadyMade, 409)
	})

	t.Run("reopen", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, withReopen)
		sess, sub := f.submitWithEvidence(t)
		_, err := f.sessions.DecideEvidence(ctx, session.Reviewer{AssistantID: f.assistant}, sub.ID, "accept", nil)
		require.NoError(t, err)

		_, err = f.sessions.UploadEvidence(ctx, f.student.ID, sub.ID, file)
		require.NoError(t, err)

		subs, err := f.sessions.ListSubmissions(ctx, sess.Slug)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, session.DecisionPending, subs[0].EvidenceDecision)
		assert.True(t, subs[0].AwaitingReview())
		assert.Contains(t, subs[0].EvidenceFile, ".png")
	})

	t.Run("foreign submission", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t)
		_, sub := f.submitWithEvidence(t)
		other, err := f.accounts.CreateStudent(ctx, account.NewStudent{Name: "Eve", Email: "e@s.lv", StudentID: "S-9", Password: "pw"})
		require.NoError(t, err)

		_, err = f.sessions.UploadEvidence(ctx, other.ID, sub.ID, file)
		requireErrCode(t, err, session.ErrCodeSubmissionNotFound, 404)
	})
}

func TestListStudentSubmissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.countOnly(t, 1)
	b := f.countOnly(t, 1)
	_, err := f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: a.Slug, StudentID: "S-1", Answers: answers(1)})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = f.sessions.SubmitPublic(ctx, session.PublicSubmission{Slug: b.Slug, StudentID: "S-1", Answers: answers(1)})
	require.NoError(t, err)

	subs, err := f.sessions.ListStudentSubmissions(ctx, "S-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, b.ID, subs[0].Session.ID)
	assert.Equal(t, a.ID, subs[1].Session.ID)
}
