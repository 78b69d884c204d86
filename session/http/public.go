package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/session"
	"github.com/programme-lv/classroom/srvcerror"
)

// GetPublic serves the student form. No identity is required.
func (h *SessionHttpHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	slug, err := decodeSlug(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	sess, err := h.srvc.PublicSession(r.Context(), slug)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"session": mapPublicSession(*sess)})
}

func (h *SessionHttpHandler) SubmitPublic(w http.ResponseWriter, r *http.Request) {
	type submitRequest struct {
		Slug            string            `json:"slug"`
		StudentID       string            `json:"student_id"`
		StudentName     string            `json:"student_name"`
		Answers         []json.RawMessage `json:"answers"`
		ExpectedVersion httpjson.OptInt   `json:"expected_version"`
	}
	log := logger.FromContext(r.Context())

	var req submitRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if strings.TrimSpace(req.Slug) == "" || strings.TrimSpace(req.StudentID) == "" ||
		strings.TrimSpace(req.StudentName) == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("slug, student_id, student_name, answers required"))
		return
	}

	sub, err := h.srvc.SubmitPublic(r.Context(), session.PublicSubmission{
		Slug:            req.Slug,
		StudentID:       strings.TrimSpace(req.StudentID),
		Answers:         req.Answers,
		ExpectedVersion: req.ExpectedVersion.Ptr(),
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"submission_id": sub.ID, "version": sub.Version})
}
