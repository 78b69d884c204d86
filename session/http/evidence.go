package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/session"
	"github.com/programme-lv/classroom/srvcerror"
	"github.com/wailsapp/mimetype"
)

func mapDecision(sub *session.Submission) httpjson.Fields {
	return httpjson.Fields{
		"submission_id": sub.ID,
		"decision":      string(sub.EvidenceDecision),
		"score":         sub.Score,
		"reviewed_at":   sub.EvidenceReviewedAt,
	}
}

type requestEvidenceRequest struct {
	SubmissionID httpjson.OptInt `json:"submission_id"`
	Slug         string          `json:"slug"`
	StudentID    string          `json:"student_id"`
}

func (req requestEvidenceRequest) ref() (session.SubmissionRef, error) {
	ref := session.SubmissionRef{
		SubmissionID: req.SubmissionID.ID(),
		Slug:         strings.TrimSpace(req.Slug),
		StudentID:    strings.TrimSpace(req.StudentID),
	}
	if ref.SubmissionID <= 0 && (ref.Slug == "" || ref.StudentID == "") {
		return ref, srvcerror.ErrValidation("submission_id or slug and student_id required")
	}
	return ref, nil
}

func (h *SessionHttpHandler) requestEvidence(w http.ResponseWriter, r *http.Request, reviewer session.Reviewer, req requestEvidenceRequest) {
	log := logger.FromContext(r.Context())

	ref, err := req.ref()
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	sub, err := h.srvc.RequestEvidence(r.Context(), reviewer, ref)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"submission_id": sub.ID,
		"student_id":    sub.StudentID,
		"requested_at":  sub.EvidenceRequestedAt,
	})
}

func (h *SessionHttpHandler) AssistantRequestEvidence(w http.ResponseWriter, r *http.Request) {
	type assistantRequest struct {
		accounthttp.AssistantIdentity
		requestEvidenceRequest
	}
	log := logger.FromContext(r.Context())

	var req assistantRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	assistantID, err := h.assistantID(r, req.AssistantIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.requestEvidence(w, r, session.Reviewer{AssistantID: assistantID}, req.requestEvidenceRequest)
}

func (h *SessionHttpHandler) teacherID(r *http.Request, id accounthttp.TeacherIdentity) (int64, error) {
	t, err := h.srvc.Teacher(r.Context(), id.Ref())
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (h *SessionHttpHandler) TeacherRequestEvidence(w http.ResponseWriter, r *http.Request) {
	type teacherRequest struct {
		accounthttp.TeacherIdentity
		requestEvidenceRequest
	}
	log := logger.FromContext(r.Context())

	var req teacherRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.requestEvidence(w, r, session.Reviewer{TeacherID: teacherID}, req.requestEvidenceRequest)
}

type decisionRequest struct {
	SubmissionID httpjson.OptInt `json:"submission_id"`
	Decision     string          `json:"decision"`
	NewScore     httpjson.Scalar `json:"new_score"`
}

func (h *SessionHttpHandler) decide(w http.ResponseWriter, r *http.Request, reviewer session.Reviewer, req decisionRequest) {
	log := logger.FromContext(r.Context())

	if req.SubmissionID.ID() <= 0 || strings.TrimSpace(req.Decision) == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("submission_id and decision required"))
		return
	}
	sub, err := h.srvc.DecideEvidence(r.Context(), reviewer, req.SubmissionID.ID(), req.Decision, req.NewScore.Ptr())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, mapDecision(sub))
}

func (h *SessionHttpHandler) AssistantEvidenceDecision(w http.ResponseWriter, r *http.Request) {
	type assistantRequest struct {
		accounthttp.AssistantIdentity
		decisionRequest
	}
	log := logger.FromContext(r.Context())

	var req assistantRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	assistantID, err := h.assistantID(r, req.AssistantIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.decide(w, r, session.Reviewer{AssistantID: assistantID}, req.decisionRequest)
}

func (h *SessionHttpHandler) TeacherEvidenceDecision(w http.ResponseWriter, r *http.Request) {
	type teacherRequest struct {
		accounthttp.TeacherIdentity
		decisionRequest
	}
	log := logger.FromContext(r.Context())

	var req teacherRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.decide(w, r, session.Reviewer{TeacherID: teacherID}, req.decisionRequest)
}

type evidenceFileRequest struct {
	SubmissionID httpjson.OptInt `json:"submission_id"`
}

// writeEvidenceFile streams the stored file back with a sniffed content
// type.
func (h *SessionHttpHandler) writeEvidenceFile(w http.ResponseWriter, r *http.Request, reviewer session.Reviewer, req evidenceFileRequest) {
	log := logger.FromContext(r.Context())

	if req.SubmissionID.ID() <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("submission_id required"))
		return
	}
	file, err := h.srvc.DownloadEvidence(r.Context(), reviewer, req.SubmissionID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	mtype := mimetype.Detect(file.Content)
	w.Header().Set("Content-Type", mtype.String())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="evidence-%d%s"`, req.SubmissionID.ID(), file.Extension))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		log.Warn("failed to write evidence file", "submission_id", req.SubmissionID.ID(), "error", err)
	}
}

func (h *SessionHttpHandler) AssistantEvidenceFile(w http.ResponseWriter, r *http.Request) {
	type assistantRequest struct {
		accounthttp.AssistantIdentity
		evidenceFileRequest
	}
	log := logger.FromContext(r.Context())

	var req assistantRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	assistantID, err := h.assistantID(r, req.AssistantIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.writeEvidenceFile(w, r, session.Reviewer{AssistantID: assistantID}, req.evidenceFileRequest)
}

func (h *SessionHttpHandler) TeacherEvidenceFile(w http.ResponseWriter, r *http.Request) {
	type teacherRequest struct {
		accounthttp.TeacherIdentity
		evidenceFileRequest
	}
	log := logger.FromContext(r.Context())

	var req teacherRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.writeEvidenceFile(w, r, session.Reviewer{TeacherID: teacherID}, req.evidenceFileRequest)
}

func (h *SessionHttpHandler) TeacherEvidenceList(w http.ResponseWriter, r *http.Request) {
	type sessionHeader struct {
		ID       int64  `json:"id"`
		Slug     string `json:"slug"`
		Title    string `json:"title"`
		CourseID int64  `json:"course_id"`
		Status   string `json:"status"`
	}
	type evidenceItem struct {
		Submission
		Session        sessionHeader `json:"session"`
		AwaitingReview bool          `json:"awaiting_review"`
	}
	log := logger.FromContext(r.Context())

	var req accounthttp.TeacherIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	items, err := h.srvc.TeacherEvidence(r.Context(), teacherID)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	out := make([]evidenceItem, 0, len(items))
	for _, it := range items {
		out = append(out, evidenceItem{
			Submission: mapSubmission(it.Submission),
			Session: sessionHeader{
				ID:       it.Session.ID,
				Slug:     it.Session.Slug,
				Title:    it.Session.DisplayTitle(),
				CourseID: it.Session.CourseID,
				Status:   string(it.Session.Status),
			},
			AwaitingReview: it.AwaitingReview(),
		})
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"evidence": out})
}

// UploadEvidence takes a multipart form with submission_id and an
// "evidence" file from a logged in student.
func (h *SessionHttpHandler) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	claims, err := auth.StudentFromContext(r.Context())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxEvidenceBytes)
	if err := r.ParseMultipartForm(h.maxEvidenceBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpjson.HandleError(log, w, srvcerror.ErrValidation("evidence file too large"))
			return
		}
		httpjson.HandleError(log, w, srvcerror.ErrValidation("submission_id and evidence file required"))
		return
	}
	submissionID, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue("submission_id")), 10, 64)
	file, _, err := r.FormFile("evidence")
	if err != nil || submissionID <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("submission_id and evidence file required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	mtype := mimetype.Detect(content)

	url, err := h.srvc.UploadEvidence(r.Context(), claims.StudentPK(), submissionID, session.EvidenceFile{
		Content:   content,
		MediaType: mtype.String(),
		Extension: mtype.Extension(),
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"evidence_url": url})
}
