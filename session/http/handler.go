package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/classroom/session"
)

type SessionHttpHandler struct {
	srvc *session.SessionSrvc
	// maxEvidenceBytes caps the multipart body of an evidence upload.
	maxEvidenceBytes int64
}

func NewSessionHttpHandler(srvc *session.SessionSrvc, maxEvidenceBytes int64) *SessionHttpHandler {
	if maxEvidenceBytes <= 0 {
		maxEvidenceBytes = 10 << 20
	}
	return &SessionHttpHandler{srvc: srvc, maxEvidenceBytes: maxEvidenceBytes}
}

func (h *SessionHttpHandler) RegisterRoutes(r chi.Router) {
	r.Route("/assistants/api/session", func(r chi.Router) {
		r.Post("/create/", h.CreateSession)
		r.Post("/get/", h.GetSession)
		r.Post("/update-structure/", h.UpdateStructure)
		r.Post("/list/", h.ListActive)
		r.Post("/list-closed/", h.ListClosed)
		r.Post("/submissions/", h.ListSubmissions)
		r.Post("/metrics/", h.Metrics)
		r.Post("/public/get/", h.GetPublic)
		r.Post("/public/submit/", h.SubmitPublic)
		r.Post("/grade-close/", h.GradeClose)
		r.Post("/end-delete/", h.EndDelete)
	})

	r.Post("/assistants/api/submission/request-evidence/", h.AssistantRequestEvidence)
	r.Post("/assistants/api/submission/evidence-decision/", h.AssistantEvidenceDecision)
	r.Post("/assistants/api/submission/evidence-file/", h.AssistantEvidenceFile)

	r.Route("/teachers/api/evidence", func(r chi.Router) {
		r.Post("/list/", h.TeacherEvidenceList)
		r.Post("/request/", h.TeacherRequestEvidence)
		r.Post("/decision/", h.TeacherEvidenceDecision)
		r.Post("/file/", h.TeacherEvidenceFile)
	})

	r.Post("/students/api/evidence/upload/", h.UploadEvidence)
}
