package http

import (
	"strings"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/httpjson"
)

// TeacherIdentity is embedded in request bodies of teacher endpoints.
type TeacherIdentity struct {
	TeacherID      httpjson.OptInt `json:"teacher_id"`
	SupabaseUserID string          `json:"supabase_user_id"`
	Email          string          `json:"email"`
}

func (t TeacherIdentity) Ref() account.TeacherRef {
	return account.TeacherRef{
		TeacherID:      t.TeacherID.ID(),
		SupabaseUserID: strings.TrimSpace(t.SupabaseUserID),
		Email:          strings.TrimSpace(t.Email),
	}
}

// AssistantIdentity is embedded in request bodies of assistant endpoints.
type AssistantIdentity struct {
	AssistantID    httpjson.OptInt `json:"assistant_id"`
	AssistantCode  string          `json:"assistant_code"`
	SupabaseUserID string          `json:"supabase_user_id"`
	Email          string          `json:"email"`
}

func (a AssistantIdentity) Ref() account.AssistantRef {
	return account.AssistantRef{
		AssistantID:    a.AssistantID.ID(),
		AssistantCode:  strings.TrimSpace(a.AssistantCode),
		SupabaseUserID: strings.TrimSpace(a.SupabaseUserID),
		Email:          strings.TrimSpace(a.Email),
	}
}

// Empty reports whether no identifying field was sent.
func (a AssistantIdentity) Empty() bool {
	ref := a.Ref()
	return ref.AssistantID == 0 && ref.AssistantCode == "" && ref.SupabaseUserID == "" && ref.Email == ""
}
