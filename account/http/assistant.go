package http

import (
	"net/http"
	"strings"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
)

func (h *AccountHttpHandler) ValidateAssistantCode(w http.ResponseWriter, r *http.Request) {
	type validateRequest struct {
		SpecialCode string `json:"special_code" validate:"required"`
	}
	log := logger.FromContext(r.Context())

	var req validateRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	claimed, err := h.srvc.ValidateAssistantCode(r.Context(), req.SpecialCode)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"claimed": claimed})
}

func (h *AccountHttpHandler) RegisterAssistant(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		SpecialCode    string `json:"special_code" validate:"required"`
		Email          string `json:"email"`
		SupabaseUserID string `json:"supabase_user_id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		Title          string `json:"title"`
	}
	log := logger.FromContext(r.Context())

	var req registerRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	res, err := h.srvc.RegisterAssistant(r.Context(), account.AssistantSignup{
		SpecialCode:    req.SpecialCode,
		Email:          strings.TrimSpace(req.Email),
		SupabaseUserID: req.SupabaseUserID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Title:          req.Title,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	fields := signupFields(res)
	fields["assistant_id"] = res.AssistantID
	httpjson.WriteSuccessJson(w, fields)
}

func (h *AccountHttpHandler) ResendAssistantConfirmation(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	link, redirectTo := h.srvc.ResendAssistantConfirmation(r.Context(), req.Email)
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"confirm_link": strOrNil(link),
		"redirect_to":  redirectTo,
	})
}

func (h *AccountHttpHandler) ConfirmAssistantSignup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req confirmRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	res, err := h.srvc.ConfirmAssistantSignup(r.Context(), strings.TrimSpace(req.SupabaseUserID))
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"confirmed":   res.Confirmed,
		"redirect_to": strOrNil(res.RedirectTo),
	})
}

// LookupAssistant resolves the signed in assistant by identity provider id
// or email.
func (h *AccountHttpHandler) LookupAssistant(w http.ResponseWriter, r *http.Request) {
	type lookupRequest struct {
		SupabaseUserID string `json:"supabase_user_id"`
		Email          string `json:"email"`
	}
	log := logger.FromContext(r.Context())

	var req lookupRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	a, err := h.srvc.LookupAssistant(r.Context(), req.SupabaseUserID, req.Email)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	type lookupAssistant struct {
		ID          int64   `json:"id"`
		Label       string  `json:"label"`
		Email       *string `json:"email"`
		SpecialCode string  `json:"special_code"`
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"assistant": lookupAssistant{
		ID:          a.ID,
		Label:       a.Label(),
		Email:       strOrNil(a.Email),
		SpecialCode: a.SpecialCode,
	}})
}
