package course

import (
	"context"
	"fmt"

	"github.com/programme-lv/classroom/account"
)

// Accounts is the part of the account service courses depend on.
type Accounts interface {
	ResolveTeacher(ctx context.Context, ref account.TeacherRef) (*account.Teacher, error)
	ResolveAssistant(ctx context.Context, ref account.AssistantRef) (*account.Assistant, error)
	GetAssistant(ctx context.Context, id int64) (*account.Assistant, error)
	GetAssistants(ctx context.Context, ids []int64) ([]account.Assistant, error)
	GetTeachers(ctx context.Context, ids []int64) ([]account.Teacher, error)
	FindStudentByStudentID(ctx context.Context, studentID string) (*account.Student, error)
}

type CourseSrvc struct {
	repo     CourseRepo
	accounts Accounts
}

func NewCourseSrvc(repo CourseRepo, accounts Accounts) *CourseSrvc {
	return &CourseSrvc{repo: repo, accounts: accounts}
}

func (s *CourseSrvc) GetCourse(ctx context.Context, id int64) (*Course, error) {
	c, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if c == nil {
		return nil, newErrCourseNotFound()
	}
	return c, nil
}

func (s *CourseSrvc) GetExercise(ctx context.Context, id int64) (*Exercise, error) {
	e, err := s.repo.GetExercise(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if e == nil {
		return nil, newErrExerciseNotFound()
	}
	return e, nil
}

func (s *CourseSrvc) GetCourses(ctx context.Context, ids []int64) ([]Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cs, err := s.repo.GetCourses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return cs, nil
}

// ListExercises returns the exercises of the given courses, newest first.
func (s *CourseSrvc) ListExercises(ctx context.Context, courseIDs []int64) ([]Exercise, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	es, err := s.repo.ListExercises(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return es, nil
}

// ListQuestions groups questions by exercise id, each group in order.
func (s *CourseSrvc) ListQuestions(ctx context.Context, exerciseIDs []int64) (map[int64][]Question, error) {
	out := make(map[int64][]Question)
	if len(exerciseIDs) == 0 {
		return out, nil
	}
	qs, err := s.repo.ListQuestions(ctx, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	for _, q := range qs {
		out[q.ExerciseID] = append(out[q.ExerciseID], q)
	}
	return out, nil
}

// ListGroupTimes groups time slots by exercise id, each group by time.
func (s *CourseSrvc) ListGroupTimes(ctx context.Context, exerciseIDs []int64) (map[int64][]GroupTime, error) {
	out := make(map[int64][]GroupTime)
	if len(exerciseIDs) == 0 {
		return out, nil
	}
	gts, err := s.repo.ListGroupTimes(ctx, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list group times: %w", err)
	}
	for _, gt := range gts {
		out[gt.ExerciseID] = append(out[gt.ExerciseID], gt)
	}
	return out, nil
}

func (s *CourseSrvc) IsAssistantAssigned(ctx context.Context, courseID int64, assistantID int64) (bool, error) {
	ok, err := s.repo.IsAssistantAssigned(ctx, courseID, assistantID)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return ok, nil
}
