package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/programme-lv/classroom/identity"
)

// IdentityProvider is the part of the identity client the account flows
// need.
type IdentityProvider interface {
	GetUserByID(ctx context.Context, id string) (identity.User, error)
	GenerateSignupLink(ctx context.Context, email string, redirectTo string) (string, error)
}

type AccountSrvc struct {
	repo          AccountRepo
	idp           IdentityProvider
	publicBaseURL string
}

func NewAccountSrvc(repo AccountRepo, idp IdentityProvider, publicBaseURL string) *AccountSrvc {
	return &AccountSrvc{
		repo:          repo,
		idp:           idp,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *AccountSrvc) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	t, err := s.repo.GetTeacher(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if t == nil {
		return nil, newErrTeacherNotFound()
	}
	return t, nil
}

// GetTeachers returns the teachers that exist among ids.
func (s *AccountSrvc) GetTeachers(ctx context.Context, ids []int64) ([]Teacher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ts, err := s.repo.GetTeachers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get teachers: %w", err)
	}
	return ts, nil
}

func (s *AccountSrvc) CreateTeacherCode(ctx context.Context, label, courseName, specialCode string) (TeacherCode, error) {
	code, err := s.repo.CreateTeacherCode(ctx, TeacherCode{
		Label:       strings.TrimSpace(label),
		CourseName:  strings.TrimSpace(courseName),
		SpecialCode: strings.TrimSpace(specialCode),
	})
	if err != nil {
		return TeacherCode{}, mapDuplicate(err, newErrSpecialCodeExists())
	}
	return code, nil
}

func (s *AccountSrvc) ValidateTeacherCode(ctx context.Context, specialCode string) (*TeacherCode, error) {
	code, err := s.repo.GetTeacherCode(ctx, strings.TrimSpace(specialCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher code: %w", err)
	}
	if code == nil {
		return nil, newErrInvalidSpecialCode()
	}
	return code, nil
}
