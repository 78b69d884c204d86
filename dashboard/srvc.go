// Package dashboard aggregates course, session and account data into the
// landing pages of assistants, teachers and students.
package dashboard

import (
	"context"
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/session"
)

type CourseSrvcFacade interface {
	AssignedCourses(ctx context.Context, assistantID int64) ([]course.AssignedCourse, error)
	ListTeacherCourses(ctx context.Context, teacherID int64) ([]course.Course, error)
	ListStudentCourses(ctx context.Context, studentPK int64) ([]course.Course, error)
	GetCourses(ctx context.Context, ids []int64) ([]course.Course, error)
	ListExercises(ctx context.Context, courseIDs []int64) ([]course.Exercise, error)
	ListQuestions(ctx context.Context, exerciseIDs []int64) (map[int64][]course.Question, error)
	ListGroupTimes(ctx context.Context, exerciseIDs []int64) (map[int64][]course.GroupTime, error)
	ListSelections(ctx context.Context, studentPK int64) (map[int64]int64, error)
}

type AccountSrvcFacade interface {
	ResolveAssistant(ctx context.Context, ref account.AssistantRef) (*account.Assistant, error)
	ResolveTeacher(ctx context.Context, ref account.TeacherRef) (*account.Teacher, error)
	GetStudent(ctx context.Context, id int64) (*account.Student, error)
	GetTeachers(ctx context.Context, ids []int64) ([]account.Teacher, error)
	GetAssistants(ctx context.Context, ids []int64) ([]account.Assistant, error)
}

type SessionSrvcFacade interface {
	ListSessionsByCourses(ctx context.Context, courseIDs []int64) ([]session.Session, map[int64][]session.Submission, error)
	ListStudentSubmissions(ctx context.Context, studentID string) ([]session.StudentSubmission, error)
}

type DashboardSrvc struct {
	courses  CourseSrvcFacade
	accounts AccountSrvcFacade
	sessions SessionSrvcFacade
	now      func() time.Time
}

func NewDashboardSrvc(courses CourseSrvcFacade, accounts AccountSrvcFacade, sessions SessionSrvcFacade) *DashboardSrvc {
	return &DashboardSrvc{
		courses:  courses,
		accounts: accounts,
		sessions: sessions,
		now:      time.Now,
	}
}

func courseIDs(cs []course.Course) []int64 {
	ids := make([]int64, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

func byID[T any](items []T, id func(T) int64) map[int64]T {
	out := make(map[int64]T, len(items))
	for _, it := range items {
		out[id(it)] = it
	}
	return out
}

func courseID(c course.Course) int64 { return c.ID }
