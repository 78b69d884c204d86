package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/logger"
)

// Teacher resolves the teacher a request speaks for.
func (s *CourseSrvc) Teacher(ctx context.Context, ref account.TeacherRef) (*account.Teacher, error) {
	return s.accounts.ResolveTeacher(ctx, ref)
}

// ownedCourse loads the course and checks that teacherID owns it.
func (s *CourseSrvc) ownedCourse(ctx context.Context, teacherID int64, courseID int64) (*Course, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c.TeacherID != teacherID {
		return nil, newErrNotCourseOwner()
	}
	return c, nil
}

func (s *CourseSrvc) ownedExercise(ctx context.Context, teacherID int64, exerciseID int64) (*Exercise, error) {
	e, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCourse(ctx, teacherID, e.CourseID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *CourseSrvc) ListTeacherCourses(ctx context.Context, teacherID int64) ([]Course, error) {
	cs, err := s.repo.ListCoursesByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return cs, nil
}

func (s *CourseSrvc) CreateCourse(ctx context.Context, teacherID int64, title string, description string) (Course, error) {
	c, err := s.repo.CreateCourse(ctx, Course{
		TeacherID:   teacherID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return Course{}, fmt.Errorf("failed to create course: %w", err)
	}
	logger.FromContext(ctx).Info("course created", "course_id", c.ID, "teacher_id", teacherID)
	return c, nil
}

func (s *CourseSrvc) DeleteCourse(ctx context.Context, teacherID int64, courseID int64) error {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return err
	}
	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	logger.FromContext(ctx).Info("course deleted", "course_id", courseID)
	return nil
}

// EnrollStudent adds the student with the given student id to the course.
// Enrolling twice is a no-op reported by the returned flag.
func (s *CourseSrvc) EnrollStudent(ctx context.Context, teacherID int64, courseID int64, studentID string) (*Course, bool, error) {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return nil, false, err
	}
	st, err := s.accounts.FindStudentByStudentID(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if st == nil {
		return nil, false, newErrInvalidStudentID()
	}
	added, err := s.repo.EnrollStudent(ctx, courseID, st.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to enroll student: %w", err)
	}
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, false, err
	}
	return c, added, nil
}

type NewQuestion struct {
	Text   string
	Points int
}

type NewExercise struct {
	CourseID    int64
	Title       string
	Details     string
	TotalPoints *int
	StartTime   *time.Time
	Deadline    *time.Time
	Questions   []NewQuestion
}

// toQuestions numbers questions in the given order. Blank questions are
// dropped.
func toQuestions(in []NewQuestion) []Question {
	out := make([]Question, 0, len(in))
	for _, q := range in {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		out = append(out, Question{Text: text, Points: q.Points, Order: len(out) + 1})
	}
	return out
}

func sumPoints(qs []Question) int {
	total := 0
	for _, q := range qs {
		total += q.Points
	}
	return total
}

func checkWindow(start, deadline *time.Time) error {
	if start != nil && deadline != nil && deadline.Before(*start) {
		return newErrDeadlineBeforeStart()
	}
	return nil
}

// CreateExercise adds an exercise with its questions. Without an explicit
// total the points of the questions are summed.
func (s *CourseSrvc) CreateExercise(ctx context.Context, teacherID int64, in NewExercise) (Exercise, []Question, error) {
	if _, err := s.ownedCourse(ctx, teacherID, in.CourseID); err != nil {
		return Exercise{}, nil, err
	}
	if err := checkWindow(in.StartTime, in.Deadline); err != nil {
		return Exercise{}, nil, err
	}
	qs := toQuestions(in.Questions)
	total := sumPoints(qs)
	if in.TotalPoints != nil {
		total = *in.TotalPoints
	}
	e, err := s.repo.CreateExercise(ctx, Exercise{
		CourseID:    in.CourseID,
		Title:       strings.TrimSpace(in.Title),
		Details:     strings.TrimSpace(in.Details),
		TotalPoints: total,
		StartTime:   in.StartTime,
		Deadline:    in.Deadline,
	}, qs)
	if err != nil {
		return Exercise{}, nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	logger.FromContext(ctx).Info("exercise created",
		"exercise_id", e.ID, "course_id", e.CourseID, "questions", len(qs))
	return e, qs, nil
}

func (s *CourseSrvc) ListCourseExercises(ctx context.Context, teacherID int64, courseID int64) ([]Exercise, error) {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return nil, err
	}
	return s.ListExercises(ctx, []int64{courseID})
}

// GetOwnedExercise returns the exercise and its ordered questions.
func (s *CourseSrvc) GetOwnedExercise(ctx context.Context, teacherID int64, exerciseID int64) (*Exercise, []Question, error) {
	e, err := s.ownedExercise(ctx, teacherID, exerciseID)
	if err != nil {
		return nil, nil, err
	}
	qs, err := s.ListQuestions(ctx, []int64{e.ID})
	if err != nil {
		return nil, nil, err
	}
	return e, qs[e.ID], nil
}

// TimePatch changes a nullable timestamp when Set. A nil Value clears it.
type TimePatch struct {
	Set   bool
	Value *time.Time
}

type ExerciseUpdate struct {
	Title       *string
	Details     *string
	TotalPoints *int
	StartTime   TimePatch
	Deadline    TimePatch
	// Questions replace the existing ones when non-nil.
	Questions []NewQuestion
}

func (s *CourseSrvc) UpdateExercise(ctx context.Context, teacherID int64, exerciseID int64, upd ExerciseUpdate) (*Exercise, error) {
	e, err := s.ownedExercise(ctx, teacherID, exerciseID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		e.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Details != nil {
		e.Details = strings.TrimSpace(*upd.Details)
	}
	if upd.TotalPoints != nil {
		e.TotalPoints = *upd.TotalPoints
	}
	if upd.StartTime.Set {
		e.StartTime = upd.StartTime.Value
	}
	if upd.Deadline.Set {
		e.Deadline = upd.Deadline.Value
	}
	if err := checkWindow(e.StartTime, e.Deadline); err != nil {
		return nil, err
	}

	var qs []Question
	if upd.Questions != nil {
		qs = toQuestions(upd.Questions)
	}
	if err := s.repo.UpdateExercise(ctx, *e, qs); err != nil {
		return nil, fmt.Errorf("failed to update exercise: %w", err)
	}
	return s.GetExercise(ctx, exerciseID)
}

func (s *CourseSrvc) DeleteExercise(ctx context.Context, teacherID int64, exerciseID int64) error {
	if _, err := s.ownedExercise(ctx, teacherID, exerciseID); err != nil {
		return err
	}
	if err := s.repo.DeleteExercise(ctx, exerciseID); err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	logger.FromContext(ctx).Info("exercise deleted", "exercise_id", exerciseID)
	return nil
}

func (s *CourseSrvc) ListExerciseGroupTimes(ctx context.Context, teacherID int64, exerciseID int64) ([]GroupTime, error) {
	if _, err := s.ownedExercise(ctx, teacherID, exerciseID); err != nil {
		return nil, err
	}
	gts, err := s.ListGroupTimes(ctx, []int64{exerciseID})
	if err != nil {
		return nil, err
	}
	return gts[exerciseID], nil
}

func (s *CourseSrvc) CreateGroupTime(ctx context.Context, teacherID int64, exerciseID int64, name string, scheduledAt time.Time) (GroupTime, error) {
	if _, err := s.ownedExercise(ctx, teacherID, exerciseID); err != nil {
		return GroupTime{}, err
	}
	gt, err := s.repo.CreateGroupTime(ctx, GroupTime{
		ExerciseID:  exerciseID,
		Name:        strings.TrimSpace(name),
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		return GroupTime{}, fmt.Errorf("failed to create group time: %w", err)
	}
	return gt, nil
}

// AssignAssistant links a directory assistant to one of the teacher's
// courses.
func (s *CourseSrvc) AssignAssistant(ctx context.Context, teacherID int64, courseID int64, assistantID int64) (*account.Assistant, error) {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return nil, err
	}
	a, err := s.accounts.GetAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AssignAssistant(ctx, courseID, a.ID); err != nil {
		return nil, fmt.Errorf("failed to assign assistant: %w", err)
	}
	logger.FromContext(ctx).Info("assistant assigned", "course_id", courseID, "assistant_id", a.ID)
	return a, nil
}

// ListCourseAssistants returns the assistants of a course in assignment
// order.
func (s *CourseSrvc) ListCourseAssistants(ctx context.Context, teacherID int64, courseID int64) ([]account.Assistant, error) {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return nil, err
	}
	as, err := s.repo.ListAssignments(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	ids := make([]int64, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.AssistantID)
	}
	found, err := s.accounts.GetAssistants(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]account.Assistant, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	out := make([]account.Assistant, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
