package http

import (
	"net/http"
	"strings"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
)

func (h *AccountHttpHandler) ValidateTeacherCode(w http.ResponseWriter, r *http.Request) {
	type validateRequest struct {
		SpecialCode string `json:"special_code" validate:"required"`
	}
	log := logger.FromContext(r.Context())

	var req validateRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	code, err := h.srvc.ValidateTeacherCode(r.Context(), req.SpecialCode)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"label":       code.Label,
		"course_name": code.CourseName,
	})
}

func (h *AccountHttpHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		SpecialCode    string `json:"special_code" validate:"required"`
		Email          string `json:"email"`
		SupabaseUserID string `json:"supabase_user_id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		Title          string `json:"title"`
		Phone          string `json:"phone"`
	}
	log := logger.FromContext(r.Context())

	var req registerRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	res, err := h.srvc.RegisterTeacher(r.Context(), account.TeacherSignup{
		SpecialCode:    req.SpecialCode,
		Email:          req.Email,
		SupabaseUserID: req.SupabaseUserID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Title:          req.Title,
		Phone:          req.Phone,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	fields := signupFields(res)
	fields["created"] = res.Created
	fields["teacher_id"] = res.TeacherID
	fields["teacher_uid"] = res.TeacherUID
	httpjson.WriteSuccessJson(w, fields)
}

type resendRequest struct {
	Email string `json:"email" validate:"required"`
}

func (h *AccountHttpHandler) ResendTeacherConfirmation(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	link, redirectTo := h.srvc.ResendTeacherConfirmation(r.Context(), req.Email)
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"confirm_link": strOrNil(link),
		"redirect_to":  redirectTo,
	})
}

type confirmRequest struct {
	SupabaseUserID string `json:"supabase_user_id" validate:"required"`
}

func (h *AccountHttpHandler) ConfirmTeacherSignup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req confirmRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	res, err := h.srvc.ConfirmTeacherSignup(r.Context(), strings.TrimSpace(req.SupabaseUserID))
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, signupFields(res))
}

func (h *AccountHttpHandler) GetTeacherInfo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req TeacherIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	teacher, err := h.srvc.ResolveTeacher(r.Context(), req.Ref())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"teacher": mapTeacher(teacher)})
}

// CreateAssistant adds a teaching assistant to the global directory on
// behalf of a teacher.
func (h *AccountHttpHandler) CreateAssistant(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		TeacherIdentity
		Name        string `json:"name" validate:"required"`
		SpecialCode string `json:"special_code" validate:"required"`
		TaEmail     string `json:"ta_email"`
	}
	log := logger.FromContext(r.Context())

	var req createRequest
	if err := httpjson.DecodeAndValidate(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if _, err := h.srvc.ResolveTeacher(r.Context(), req.Ref()); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	a, err := h.srvc.CreateAssistant(r.Context(), account.NewAssistant{
		Name:        req.Name,
		SpecialCode: req.SpecialCode,
		Email:       req.TaEmail,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"ta": mapAssistant(&a)})
}

func (h *AccountHttpHandler) ListAssistants(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req TeacherIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if _, err := h.srvc.ResolveTeacher(r.Context(), req.Ref()); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	as, err := h.srvc.ListAssistants(r.Context())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	tas := make([]Assistant, 0, len(as))
	for i := range as {
		tas = append(tas, mapAssistant(&as[i]))
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"tas": tas})
}
