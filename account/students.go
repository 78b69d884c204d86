package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/programme-lv/classroom/logger"
	"golang.org/x/crypto/bcrypt"
)

type NewStudent struct {
	Name      string
	Email     string
	StudentID string
	Password  string
}

func (s *AccountSrvc) CreateStudent(ctx context.Context, in NewStudent) (Student, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Student{}, fmt.Errorf("failed to hash password: %w", err)
	}
	st, err := s.repo.CreateStudent(ctx, Student{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		StudentID:    strings.TrimSpace(in.StudentID),
		PasswordHash: string(hash),
	})
	if err != nil {
		return Student{}, mapDuplicate(err, newErrStudentExists())
	}
	logger.FromContext(ctx).Info("student created", "student_pk", st.ID)
	return st, nil
}

// Login matches identifier against email first and student id second, both
// case-insensitively.
func (s *AccountSrvc) Login(ctx context.Context, identifier string, password string) (*Student, error) {
	identifier = strings.TrimSpace(identifier)
	st, err := s.repo.GetStudentByEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if st == nil {
		st, err = s.repo.GetStudentByStudentID(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
	}
	if st == nil {
		return nil, newErrInvalidCredentials()
	}
	err = bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(strings.TrimSpace(password)))
	if err != nil {
		return nil, newErrInvalidCredentials()
	}
	return st, nil
}

func (s *AccountSrvc) GetStudent(ctx context.Context, id int64) (*Student, error) {
	st, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if st == nil {
		return nil, newErrStudentNotFound()
	}
	return st, nil
}

// FindStudentByStudentID returns nil, nil for an unknown student id.
func (s *AccountSrvc) FindStudentByStudentID(ctx context.Context, studentID string) (*Student, error) {
	st, err := s.repo.GetStudentByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return st, nil
}
