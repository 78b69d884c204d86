package course

import (
	"context"
	"time"
)

// CourseRepo persists courses and everything hanging off them. Getters
// return nil, nil when nothing matches.
type CourseRepo interface {
	GetCourse(ctx context.Context, id int64) (*Course, error)
	GetCourses(ctx context.Context, ids []int64) ([]Course, error)
	// ListCoursesByTeacher orders newest first.
	ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]Course, error)
	// ListCoursesByStudent orders by title.
	ListCoursesByStudent(ctx context.Context, studentPK int64) ([]Course, error)
	CreateCourse(ctx context.Context, c Course) (Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	// EnrollStudent adds the student and bumps enrolled_count. It reports
	// false when the student was already enrolled.
	EnrollStudent(ctx context.Context, courseID int64, studentPK int64) (bool, error)
	IsEnrolled(ctx context.Context, courseID int64, studentPK int64) (bool, error)

	// ListExercises orders newest first and fills QuestionsCount.
	ListExercises(ctx context.Context, courseIDs []int64) ([]Exercise, error)
	GetExercise(ctx context.Context, id int64) (*Exercise, error)
	CreateExercise(ctx context.Context, e Exercise, questions []Question) (Exercise, error)
	// UpdateExercise replaces the questions when questions is non-nil.
	UpdateExercise(ctx context.Context, e Exercise, questions []Question) error
	DeleteExercise(ctx context.Context, id int64) error
	// StampExerciseClosed sets the deadline to at when it is null or later,
	// and the start time to at when it is null.
	StampExerciseClosed(ctx context.Context, id int64, at time.Time) error
	// ListQuestions orders by exercise, then question order.
	ListQuestions(ctx context.Context, exerciseIDs []int64) ([]Question, error)

	// ListGroupTimes orders by scheduled time.
	ListGroupTimes(ctx context.Context, exerciseIDs []int64) ([]GroupTime, error)
	GetGroupTime(ctx context.Context, id int64) (*GroupTime, error)
	CreateGroupTime(ctx context.Context, gt GroupTime) (GroupTime, error)
	UpsertSelection(ctx context.Context, s Selection) error
	ListSelections(ctx context.Context, studentPK int64) ([]Selection, error)

	// AssignAssistant is idempotent.
	AssignAssistant(ctx context.Context, courseID int64, assistantID int64) error
	ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error)
	// ListAssignedCourses orders by course title.
	ListAssignedCourses(ctx context.Context, assistantID int64) ([]Course, error)
	IsAssistantAssigned(ctx context.Context, courseID int64, assistantID int64) (bool, error)
}
