package course_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	accounts *account.AccountSrvc
	courses  *course.CourseSrvc
	repo     course.CourseRepo
	teacher  int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	accounts := account.NewAccountSrvc(account.NewInMemRepo(), nil, "")
	_, err := accounts.CreateTeacherCode(ctx, "Math", "Math 101", "MATH-101")
	require.NoError(t, err)
	res, err := accounts.RegisterTeacher(ctx, account.TeacherSignup{SpecialCode: "MATH-101", Email: "t@school.lv"})
	require.NoError(t, err)
	repo := course.NewInMemRepo()
	return fixture{
		accounts: accounts,
		courses:  course.NewCourseSrvc(repo, accounts),
		repo:     repo,
		teacher:  res.TeacherID,
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

func TestCourseOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.courses.CreateCourse(ctx, f.teacher, "  Algebra ", "")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", c.Title)

	other := f.teacher + 1000
	err = f.courses.DeleteCourse(ctx, other, c.ID)
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)

	err = f.courses.DeleteCourse(ctx, f.teacher, 424242)
	requireErrCode(t, err, course.ErrCodeCourseNotFound, 404)

	require.NoError(t, f.courses.DeleteCourse(ctx, f.teacher, c.ID))
	cs, err := f.courses.ListTeacherCourses(ctx, f.teacher)
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestEnrollStudentCountsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.courses.CreateCourse(ctx, f.teacher, "Algebra", "")
	require.NoError(t, err)
	_, err = f.accounts.CreateStudent(ctx, account.NewStudent{Name: "Anna", Email: "a@s.lv", StudentID: "S-1", Password: "x"})
	require.NoError(t, err)

	got, added, err := f.courses.EnrollStudent(ctx, f.teacher, c.ID, "s-1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, got.EnrolledCount)

	got, added, err = f.courses.EnrollStudent(ctx, f.teacher, c.ID, "S-1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, got.EnrolledCount)

	_, _, err = f.courses.EnrollStudent(ctx, f.teacher, c.ID, "S-404")
	requireErrCode(t, err, course.ErrCodeInvalidStudentID, 404)
}

func TestExerciseLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.courses.CreateCourse(ctx, f.teacher, "Algebra", "")
	require.NoError(t, err)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	_, _, err = f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{
		CourseID: c.ID, Title: "Bad", StartTime: &start, Deadline: &before,
	})
	requireErrCode(t, err, course.ErrCodeDeadlineBeforeStart, 400)

	e, qs, err := f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{
		CourseID:  c.ID,
		Title:     "Quiz 1",
		StartTime: &start,
		Questions: []course.NewQuestion{{Text: "2+2", Points: 2}, {Text: " "}, {Text: "3*3", Points: 3}},
	})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 5, e.TotalPoints)
	assert.Equal(t, 2, qs[1].Order)

	got, gotQs, err := f.courses.GetOwnedExercise(ctx, f.teacher, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuestionsCount)
	assert.Equal(t, "2+2", gotQs[0].Text)

	title := "Quiz 1 (retake)"
	updated, err := f.courses.UpdateExercise(ctx, f.teacher, e.ID, course.ExerciseUpdate{
		Title:     &title,
		StartTime: course.TimePatch{Set: true},
		Questions: []course.NewQuestion{{Text: "only", Points: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Nil(t, updated.StartTime)
	assert.Equal(t, 1, updated.QuestionsCount)
	assert.Equal(t, 5, updated.TotalPoints)

	// questions untouched when not given
	_, err = f.courses.UpdateExercise(ctx, f.teacher, e.ID, course.ExerciseUpdate{})
	require.NoError(t, err)
	_, gotQs, err = f.courses.GetOwnedExercise(ctx, f.teacher, e.ID)
	require.NoError(t, err)
	assert.Len(t, gotQs, 1)

	_, err = f.courses.UpdateExercise(ctx, f.teacher+1, e.ID, course.ExerciseUpdate{})
	requireErrCode(t, err, srvcerror.ErrCodeUnauthorized, 403)

	require.NoError(t, f.courses.DeleteExercise(ctx, f.teacher, e.ID))
	_, _, err = f.courses.GetOwnedExercise(ctx, f.teacher, e.ID)
	requireErrCode(t, err, course.ErrCodeExerciseNotFound, 404)
}

func TestStampExerciseClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.courses.CreateCourse(ctx, f.teacher, "Algebra", "")
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open, _, err := f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: c.ID, Title: "open"})
	require.NoError(t, err)
	later, _, err := f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: c.ID, Title: "later", StartTime: &past, Deadline: &future})
	require.NoError(t, err)
	done, _, err := f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: c.ID, Title: "done", StartTime: &past, Deadline: &past})
	require.NoError(t, err)

	for _, id := range []int64{open.ID, later.ID, done.ID} {
		require.NoError(t, f.repo.StampExerciseClosed(ctx, id, now))
	}

	e, err := f.courses.GetExercise(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, now, *e.Deadline)
	assert.Equal(t, now, *e.StartTime)

	e, err = f.courses.GetExercise(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, now, *e.Deadline)
	assert.Equal(t, past, *e.StartTime)

	e, err = f.courses.GetExercise(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, past, *e.Deadline)
}

func TestGroupTimeSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.courses.CreateCourse(ctx, f.teacher, "Algebra", "")
	require.NoError(t, err)
	st, err := f.accounts.CreateStudent(ctx, account.NewStudent{Name: "Anna", Email: "a@s.lv", StudentID: "S-1", Password: "x"})
	require.NoError(t, err)
	e, _, err := f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: c.ID, Title: "Lab"})
	require.NoError(t, err)

	t1 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	late, err := f.courses.CreateGroupTime(ctx, f.teacher, e.ID, "Group B", t1.Add(2*time.Hour))
	require.NoError(t, err)
	early, err := f.courses.CreateGroupTime(ctx, f.teacher, e.ID, "Group A", t1)
	require.NoError(t, err)

	_, _, err = f.courses.StudentGroupTimes(ctx, st.ID, e.ID)
	requireErrCode(t, err, course.ErrCodeNotEnrolled, 403)

	_, _, err = f.courses.EnrollStudent(ctx, f.teacher, c.ID, "S-1")
	require.NoError(t, err)

	gts, selected, err := f.courses.StudentGroupTimes(ctx, st.ID, e.ID)
	require.NoError(t, err)
	require.Len(t, gts, 2)
	assert.Equal(t, early.ID, gts[0].ID)
	assert.Nil(t, selected)

	_, err = f.courses.SelectGroupTime(ctx, st.ID, e.ID, 9999)
	requireErrCode(t, err, course.ErrCodeGroupTimeNotFound, 404)

	id, err := f.courses.SelectGroupTime(ctx, st.ID, e.ID, late.ID)
	require.NoError(t, err)
	assert.Equal(t, late.ID, id)
	_, err = f.courses.SelectGroupTime(ctx, st.ID, e.ID, early.ID)
	require.NoError(t, err)

	_, selected, err = f.courses.StudentGroupTimes(ctx, st.ID, e.ID)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, early.ID, *selected)

	sels, err := f.courses.ListSelections(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, sels, 1)
}

func TestAssignedCourses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	zoo, err := f.courses.CreateCourse(ctx, f.teacher, "Zoology", "")
	require.NoError(t, err)
	alg, err := f.courses.CreateCourse(ctx, f.teacher, "Algebra", "")
	require.NoError(t, err)
	ta, err := f.accounts.CreateAssistant(ctx, account.NewAssistant{Name: "TA", SpecialCode: "TA-1"})
	require.NoError(t, err)

	_, err = f.courses.AssignAssistant(ctx, f.teacher, zoo.ID, ta.ID)
	require.NoError(t, err)
	_, err = f.courses.AssignAssistant(ctx, f.teacher, alg.ID, ta.ID)
	require.NoError(t, err)
	_, err = f.courses.AssignAssistant(ctx, f.teacher, alg.ID, ta.ID)
	require.NoError(t, err)

	_, err = f.courses.AssignAssistant(ctx, f.teacher, alg.ID, 9999)
	requireErrCode(t, err, account.ErrCodeAssistantNotFound, 404)

	listed, err := f.courses.ListCourseAssistants(ctx, f.teacher, alg.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, _, err = f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: alg.ID, Title: "first"})
	require.NoError(t, err)
	_, _, err = f.courses.CreateExercise(ctx, f.teacher, course.NewExercise{CourseID: alg.ID, Title: "second"})
	require.NoError(t, err)

	assigned, err := f.courses.AssignedCourses(ctx, ta.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.Equal(t, "Algebra", assigned[0].Course.Title)
	require.NotNil(t, assigned[0].Teacher)
	assert.Equal(t, "t@school.lv", assigned[0].Teacher.Email)
	require.Len(t, assigned[0].Exercises, 2)
	assert.Equal(t, "second", assigned[0].Exercises[0].Title)
	assert.Empty(t, assigned[1].Exercises)

	ok, err := f.courses.IsAssistantAssigned(ctx, zoo.ID, ta.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
