package http

import (
	"net/http"
	"strings"
	"time"

	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/session"
	"github.com/programme-lv/classroom/srvcerror"
	"github.com/programme-lv/classroom/structure"
)

func (h *SessionHttpHandler) assistantID(r *http.Request, id accounthttp.AssistantIdentity) (int64, error) {
	a, err := h.srvc.Assistant(r.Context(), id.Ref())
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

func (h *SessionHttpHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		accounthttp.AssistantIdentity
		CourseID         httpjson.OptInt      `json:"course_id"`
		ExerciseID       httpjson.OptInt      `json:"exercise_id"`
		TimeLimitMinutes httpjson.OptInt      `json:"time_limit_minutes"`
		Mode             string               `json:"mode"`
		QuestionCount    httpjson.OptInt      `json:"question_count"`
		SubpartsCount    httpjson.OptInt      `json:"subparts_count"`
		Structure        *structure.Structure `json:"structure"`
	}
	log := logger.FromContext(r.Context())

	var req createRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if req.CourseID.ID() <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("course_id required"))
		return
	}
	assistantID, err := h.assistantID(r, req.AssistantIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	sess, err := h.srvc.CreateSession(r.Context(), assistantID, session.NewSession{
		CourseID:         req.CourseID.ID(),
		ExerciseID:       req.ExerciseID.ID(),
		TimeLimitMinutes: req.TimeLimitMinutes.Value,
		Mode:             session.Mode(strings.TrimSpace(req.Mode)),
		QuestionCount:    req.QuestionCount.Value,
		SubpartsCount:    req.SubpartsCount.Value,
		Structure:        req.Structure,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"session": h.mapSession(sess)})
}

type slugRequest struct {
	Slug string `json:"slug" validate:"required"`
}

func decodeSlug(r *http.Request) (string, error) {
	var req slugRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		return "", err
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if err := httpjson.Validate(&req); err != nil {
		return "", err
	}
	return req.Slug, nil
}

func (h *SessionHttpHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	slug, err := decodeSlug(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	sess, err := h.srvc.GetSession(r.Context(), slug)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"session": h.mapSession(*sess)})
}

func (h *SessionHttpHandler) UpdateStructure(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		Slug      string               `json:"slug"`
		Structure *structure.Structure `json:"structure"`
	}
	log := logger.FromContext(r.Context())

	var req updateRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if strings.TrimSpace(req.Slug) == "" || req.Structure == nil {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("slug and structure required"))
		return
	}

	sess, err := h.srvc.UpdateStructure(r.Context(), req.Slug, *req.Structure)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"session": h.mapSession(*sess)})
}

type sessionListItem struct {
	ID               int64      `json:"id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	CourseID         int64      `json:"course_id"`
	CourseTitle      string     `json:"course_title"`
	StartedAt        *time.Time `json:"started_at"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
}

func mapListItem(s session.SessionSummary) sessionListItem {
	item := sessionListItem{
		ID:               s.ID,
		Slug:             s.Slug,
		Title:            s.DisplayTitle(),
		CourseID:         s.CourseID,
		StartedAt:        s.StartedAt,
		TimeLimitMinutes: s.TimeLimitMinutes,
	}
	if s.Course != nil {
		item.CourseTitle = s.Course.Title
	}
	return item
}

func (h *SessionHttpHandler) listSessions(w http.ResponseWriter, r *http.Request, status session.Status) ([]session.SessionSummary, bool) {
	log := logger.FromContext(r.Context())

	var req accounthttp.AssistantIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return nil, false
	}
	assistantID, err := h.assistantID(r, req)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return nil, false
	}
	ss, err := h.srvc.ListAssistantSessions(r.Context(), assistantID, status)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return nil, false
	}
	return ss, true
}

func (h *SessionHttpHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	type activeSession struct {
		sessionListItem
		ExerciseID    *int64  `json:"exercise_id"`
		ExerciseTitle *string `json:"exercise_title"`
		PublicURL     string  `json:"public_url"`
	}

	ss, ok := h.listSessions(w, r, session.StatusActive)
	if !ok {
		return
	}
	out := make([]activeSession, 0, len(ss))
	for _, s := range ss {
		item := activeSession{
			sessionListItem: mapListItem(s),
			ExerciseID:      s.ExerciseID,
			PublicURL:       h.srvc.PublicURL(s.Slug),
		}
		if s.Exercise != nil {
			item.ExerciseTitle = &s.Exercise.Title
		}
		out = append(out, item)
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"sessions": out})
}

func (h *SessionHttpHandler) ListClosed(w http.ResponseWriter, r *http.Request) {
	type exerciseSummary struct {
		ID          *int64  `json:"id"`
		Title       *string `json:"title"`
		Details     *string `json:"details"`
		TotalPoints *int    `json:"total_points"`
	}
	type closedSession struct {
		sessionListItem
		Exercise exerciseSummary `json:"exercise"`
		EndedAt  *time.Time      `json:"ended_at"`
	}

	ss, ok := h.listSessions(w, r, session.StatusClosed)
	if !ok {
		return
	}
	out := make([]closedSession, 0, len(ss))
	for _, s := range ss {
		item := closedSession{sessionListItem: mapListItem(s), EndedAt: s.EndedAt}
		if e := s.Exercise; e != nil {
			item.Exercise = exerciseSummary{ID: &e.ID, Title: &e.Title, Details: &e.Details, TotalPoints: &e.TotalPoints}
		}
		out = append(out, item)
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"sessions": out})
}

func (h *SessionHttpHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	slug, err := decodeSlug(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	subs, err := h.srvc.ListSubmissions(r.Context(), slug)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"submissions": mapSubmissions(subs)})
}

func (h *SessionHttpHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	type metrics struct {
		TotalSubmissions   int     `json:"total_submissions"`
		TotalCheckable     int     `json:"total_checkable"`
		TotalChecks        int     `json:"total_checks"`
		PercentCompleteAvg float64 `json:"percent_complete_avg"`
		OverReported       int     `json:"over_reported"`
	}
	log := logger.FromContext(r.Context())

	slug, err := decodeSlug(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	m, err := h.srvc.Metrics(r.Context(), slug)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"metrics": metrics{
		TotalSubmissions:   m.TotalSubmissions,
		TotalCheckable:     m.TotalCheckable,
		TotalChecks:        m.TotalChecks,
		PercentCompleteAvg: m.PercentCompleteAvg,
		OverReported:       m.OverReported,
	}})
}

func (h *SessionHttpHandler) GradeClose(w http.ResponseWriter, r *http.Request) {
	type gradeEntry struct {
		StudentID  string          `json:"student_id"`
		Score      httpjson.OptInt `json:"score"`
		GroupIndex httpjson.OptInt `json:"group_index"`
	}
	type gradeCloseRequest struct {
		accounthttp.AssistantIdentity
		Slug   string       `json:"slug"`
		Graded []gradeEntry `json:"graded"`
	}
	log := logger.FromContext(r.Context())

	var req gradeCloseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("slug required"))
		return
	}
	assistantID, err := h.assistantID(r, req.AssistantIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	grades := make([]session.Grade, 0, len(req.Graded))
	for _, g := range req.Graded {
		grades = append(grades, session.Grade{
			StudentID:  g.StudentID,
			Score:      g.Score.Ptr(),
			GroupIndex: g.GroupIndex.Ptr(),
		})
	}
	updated, sess, err := h.srvc.GradeClose(r.Context(), assistantID, req.Slug, grades)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"updated_count": updated,
		"session":       map[string]string{"slug": sess.Slug, "status": string(sess.Status)},
	})
}

func (h *SessionHttpHandler) EndDelete(w http.ResponseWriter, r *http.Request) {
	type endDeleteRequest struct {
		accounthttp.AssistantIdentity
		Slug      string          `json:"slug"`
		SessionID httpjson.OptInt `json:"session_id"`
	}
	log := logger.FromContext(r.Context())

	var req endDeleteRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if strings.TrimSpace(req.Slug) == "" && req.SessionID.ID() <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("slug or session_id required"))
		return
	}
	assistantID, err := h.assistantID(r, req.AssistantIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	endedAt, err := h.srvc.EndDelete(r.Context(), assistantID, req.Slug, req.SessionID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"ended_at": endedAt})
}
