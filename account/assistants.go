package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/programme-lv/classroom/logger"
)

type NewAssistant struct {
	Name        string
	SpecialCode string
	Email       string
}

// CreateAssistant adds an unclaimed assistant to the global directory.
func (s *AccountSrvc) CreateAssistant(ctx context.Context, in NewAssistant) (Assistant, error) {
	a, err := s.repo.CreateAssistant(ctx, Assistant{
		Name:        strings.TrimSpace(in.Name),
		SpecialCode: strings.TrimSpace(in.SpecialCode),
		Email:       strings.TrimSpace(in.Email),
	})
	if err != nil {
		return Assistant{}, mapDuplicate(err, newErrSpecialCodeExists())
	}
	logger.FromContext(ctx).Info("assistant created", "assistant_id", a.ID)
	return a, nil
}

func (s *AccountSrvc) ListAssistants(ctx context.Context) ([]Assistant, error) {
	as, err := s.repo.ListAssistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assistants: %w", err)
	}
	return as, nil
}

func (s *AccountSrvc) GetAssistants(ctx context.Context, ids []int64) ([]Assistant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	as, err := s.repo.GetAssistants(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistants: %w", err)
	}
	return as, nil
}

func (s *AccountSrvc) GetAssistant(ctx context.Context, id int64) (*Assistant, error) {
	a, err := s.repo.GetAssistant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistant: %w", err)
	}
	if a == nil {
		return nil, newErrAssistantNotFound()
	}
	return a, nil
}

// LookupAssistant finds an assistant by identity provider id, then email.
func (s *AccountSrvc) LookupAssistant(ctx context.Context, supabaseUserID string, email string) (*Assistant, error) {
	return s.ResolveAssistant(ctx, AssistantRef{SupabaseUserID: supabaseUserID, Email: email})
}
