package course

import (
	"context"
	"fmt"

	"github.com/programme-lv/classroom/account"
)

// AssignedCourse is a course an assistant works in, with its teacher and
// exercises (newest first).
type AssignedCourse struct {
	Course    Course
	Teacher   *account.Teacher
	Exercises []Exercise
}

func (s *CourseSrvc) Assistant(ctx context.Context, ref account.AssistantRef) (*account.Assistant, error) {
	return s.accounts.ResolveAssistant(ctx, ref)
}

// AssignedCourses lists the assistant's courses ordered by title.
func (s *CourseSrvc) AssignedCourses(ctx context.Context, assistantID int64) ([]AssignedCourse, error) {
	cs, err := s.repo.ListAssignedCourses(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned courses: %w", err)
	}
	if len(cs) == 0 {
		return []AssignedCourse{}, nil
	}

	courseIDs := make([]int64, 0, len(cs))
	teacherIDs := make([]int64, 0, len(cs))
	for _, c := range cs {
		courseIDs = append(courseIDs, c.ID)
		teacherIDs = append(teacherIDs, c.TeacherID)
	}

	teachers, err := s.accounts.GetTeachers(ctx, teacherIDs)
	if err != nil {
		return nil, err
	}
	teacherByID := make(map[int64]*account.Teacher, len(teachers))
	for i := range teachers {
		teacherByID[teachers[i].ID] = &teachers[i]
	}

	exercises, err := s.ListExercises(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	exByCourse := make(map[int64][]Exercise)
	for _, e := range exercises {
		exByCourse[e.CourseID] = append(exByCourse[e.CourseID], e)
	}

	out := make([]AssignedCourse, 0, len(cs))
	for _, c := range cs {
		out = append(out, AssignedCourse{
			Course:    c,
			Teacher:   teacherByID[c.TeacherID],
			Exercises: exByCourse[c.ID],
		})
	}
	return out, nil
}
