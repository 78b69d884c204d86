package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/classroom/account"
)

type AccountHttpHandler struct {
	srvc   *account.AccountSrvc
	jwtKey []byte
}

func NewAccountHttpHandler(srvc *account.AccountSrvc, jwtKey []byte) *AccountHttpHandler {
	return &AccountHttpHandler{
		srvc:   srvc,
		jwtKey: jwtKey,
	}
}

func (h *AccountHttpHandler) RegisterRoutes(r chi.Router) {
	r.Post("/teachers/validate-code/", h.ValidateTeacherCode)
	r.Post("/teachers/register/", h.RegisterTeacher)
	r.Post("/teachers/resend-confirmation/", h.ResendTeacherConfirmation)
	r.Post("/teachers/confirm-signup/", h.ConfirmTeacherSignup)
	r.Post("/teachers/api/teacher/info/", h.GetTeacherInfo)
	r.Post("/teachers/api/courses/tas/create/", h.CreateAssistant)
	r.Post("/teachers/api/courses/tas/all/", h.ListAssistants)

	r.Post("/assistants/validate-code/", h.ValidateAssistantCode)
	r.Post("/assistants/register/", h.RegisterAssistant)
	r.Post("/assistants/resend-confirmation/", h.ResendAssistantConfirmation)
	r.Post("/assistants/confirm-signup/", h.ConfirmAssistantSignup)
	r.Post("/assistants/api/assistant/lookup/", h.LookupAssistant)

	r.Post("/students/auth/login/", h.Login)
	r.Post("/students/api/logout/", h.Logout)
}
