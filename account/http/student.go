package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/srvcerror"
)

const (
	studentDashboardPath = "/dashboard/student/"
	studentLoginPath     = "/auth/students/login/"
)

func (h *AccountHttpHandler) Login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	log := logger.FromContext(r.Context())

	var req loginRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Password) == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("Identifier and password required"))
		return
	}

	st, err := h.srvc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	token, err := auth.GenerateJWT(st.ID, st.StudentID, st.Name, st.Email, h.jwtKey)
	if err != nil {
		httpjson.HandleError(log, w, fmt.Errorf("failed to generate JWT: %w", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"token":    token,
		"redirect": studentDashboardPath,
	})
}

// Logout clears the auth cookie. Tokens are stateless and expire on their own.
func (h *AccountHttpHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	httpjson.WriteSuccessJson(w, httpjson.Fields{"redirect": studentLoginPath})
}
