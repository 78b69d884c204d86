package account

import (
	"context"
	"errors"
)

// ErrDuplicate is returned by repositories when a unique column collides.
var ErrDuplicate = errors.New("duplicate key")

// AccountRepo persists teachers, assistants and students. Getters return
// nil, nil when nothing matches.
type AccountRepo interface {
	GetTeacherCode(ctx context.Context, specialCode string) (*TeacherCode, error)
	CreateTeacherCode(ctx context.Context, code TeacherCode) (TeacherCode, error)

	GetTeacher(ctx context.Context, id int64) (*Teacher, error)
	GetTeacherByUserID(ctx context.Context, userID string) (*Teacher, error)
	GetTeacherByEmail(ctx context.Context, email string) (*Teacher, error)
	GetTeachers(ctx context.Context, ids []int64) ([]Teacher, error)
	CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
	UpdateTeacher(ctx context.Context, t Teacher) error

	GetAssistant(ctx context.Context, id int64) (*Assistant, error)
	GetAssistantByCode(ctx context.Context, code string) (*Assistant, error)
	GetAssistantByUserID(ctx context.Context, userID string) (*Assistant, error)
	GetAssistantByEmail(ctx context.Context, email string) (*Assistant, error)
	GetAssistants(ctx context.Context, ids []int64) ([]Assistant, error)
	ListAssistants(ctx context.Context) ([]Assistant, error)
	CreateAssistant(ctx context.Context, a Assistant) (Assistant, error)
	UpdateAssistant(ctx context.Context, a Assistant) error

	GetStudent(ctx context.Context, id int64) (*Student, error)
	// GetStudentByStudentID and GetStudentByEmail match case-insensitively.
	GetStudentByStudentID(ctx context.Context, studentID string) (*Student, error)
	GetStudentByEmail(ctx context.Context, email string) (*Student, error)
	CreateStudent(ctx context.Context, s Student) (Student, error)
}
