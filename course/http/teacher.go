package http

import (
	"net/http"
	"strings"
	"time"

	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/srvcerror"
)

// teacherID resolves the identity fields embedded in a teacher request.
func (h *CourseHttpHandler) teacherID(r *http.Request, id accounthttp.TeacherIdentity) (int64, error) {
	t, err := h.srvc.Teacher(r.Context(), id.Ref())
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (h *CourseHttpHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
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

	cs, err := h.srvc.ListTeacherCourses(r.Context(), teacherID)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	out := make([]Course, 0, len(cs))
	for _, c := range cs {
		out = append(out, mapCourse(c))
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"courses": out})
}

func (h *CourseHttpHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		accounthttp.TeacherIdentity
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
	}
	log := logger.FromContext(r.Context())

	var req createRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := httpjson.Validate(&req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	c, err := h.srvc.CreateCourse(r.Context(), teacherID, req.Title, req.Description)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"course": mapCourse(c)})
}

type courseRequest struct {
	accounthttp.TeacherIdentity
	CourseID httpjson.OptInt `json:"course_id"`
}

func (c courseRequest) check() error {
	if c.CourseID.ID() <= 0 {
		return srvcerror.ErrValidation("course_id required")
	}
	return nil
}

func (h *CourseHttpHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req courseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	if err := h.srvc.DeleteCourse(r.Context(), teacherID, req.CourseID.ID()); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"deleted": req.CourseID.ID()})
}

func (h *CourseHttpHandler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	type enrollRequest struct {
		courseRequest
		StudentID string `json:"student_id"`
	}
	log := logger.FromContext(r.Context())

	var req enrollRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.CourseID.ID() <= 0 || req.StudentID == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("course_id and student_id required"))
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	c, added, err := h.srvc.EnrollStudent(r.Context(), teacherID, req.CourseID.ID(), req.StudentID)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"enrolled":       added,
		"enrolled_count": c.EnrolledCount,
	})
}

func (h *CourseHttpHandler) ListCourseAssistants(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req courseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	as, err := h.srvc.ListCourseAssistants(r.Context(), teacherID, req.CourseID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	out := make([]Assistant, 0, len(as))
	for _, a := range as {
		out = append(out, mapAssistant(a))
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"tas": out})
}

func (h *CourseHttpHandler) AssignAssistant(w http.ResponseWriter, r *http.Request) {
	type assignRequest struct {
		courseRequest
		TaID httpjson.OptInt `json:"ta_id"`
	}
	log := logger.FromContext(r.Context())

	var req assignRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if req.CourseID.ID() <= 0 || req.TaID.ID() <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("course_id and ta_id required"))
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	a, err := h.srvc.AssignAssistant(r.Context(), teacherID, req.CourseID.ID(), req.TaID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"ta": mapAssistant(*a)})
}

type questionInput struct {
	Text   string          `json:"text"`
	Points httpjson.OptInt `json:"points"`
}

func toNewQuestions(in []questionInput) []course.NewQuestion {
	if in == nil {
		return nil
	}
	out := make([]course.NewQuestion, 0, len(in))
	for _, q := range in {
		out = append(out, course.NewQuestion{Text: q.Text, Points: q.Points.Value})
	}
	return out
}

func (h *CourseHttpHandler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		courseRequest
		Title       string           `json:"title"`
		Details     string           `json:"details"`
		TotalPoints httpjson.OptInt  `json:"total_points"`
		StartTime   httpjson.OptTime `json:"start_time"`
		Deadline    httpjson.OptTime `json:"deadline"`
		Questions   []questionInput  `json:"questions"`
	}
	log := logger.FromContext(r.Context())

	var req createRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if req.CourseID.ID() <= 0 || strings.TrimSpace(req.Title) == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("course_id and title required"))
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	e, qs, err := h.srvc.CreateExercise(r.Context(), teacherID, course.NewExercise{
		CourseID:    req.CourseID.ID(),
		Title:       req.Title,
		Details:     req.Details,
		TotalPoints: req.TotalPoints.Ptr(),
		StartTime:   req.StartTime.Value,
		Deadline:    req.Deadline.Value,
		Questions:   toNewQuestions(req.Questions),
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	e.QuestionsCount = len(qs)
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"exercise":  mapExercise(e),
		"questions": mapQuestions(qs),
	})
}

func (h *CourseHttpHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req courseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	es, err := h.srvc.ListCourseExercises(r.Context(), teacherID, req.CourseID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"exercises": mapExercises(es)})
}

type exerciseRequest struct {
	accounthttp.TeacherIdentity
	ExerciseID httpjson.OptInt `json:"exercise_id"`
}

func (e exerciseRequest) check() error {
	if e.ExerciseID.ID() <= 0 {
		return srvcerror.ErrValidation("exercise_id required")
	}
	return nil
}

func (h *CourseHttpHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req exerciseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	e, qs, err := h.srvc.GetOwnedExercise(r.Context(), teacherID, req.ExerciseID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"exercise":  mapExercise(*e),
		"questions": mapQuestions(qs),
	})
}

func (h *CourseHttpHandler) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		exerciseRequest
		Title       *string          `json:"title"`
		Details     *string          `json:"details"`
		TotalPoints httpjson.OptInt  `json:"total_points"`
		StartTime   httpjson.OptTime `json:"start_time"`
		Deadline    httpjson.OptTime `json:"deadline"`
		Questions   []questionInput  `json:"questions"`
	}
	log := logger.FromContext(r.Context())

	var req updateRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("title must not be blank"))
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	e, err := h.srvc.UpdateExercise(r.Context(), teacherID, req.ExerciseID.ID(), course.ExerciseUpdate{
		Title:       req.Title,
		Details:     req.Details,
		TotalPoints: req.TotalPoints.Ptr(),
		StartTime:   course.TimePatch{Set: req.StartTime.Set, Value: req.StartTime.Value},
		Deadline:    course.TimePatch{Set: req.Deadline.Set, Value: req.Deadline.Value},
		Questions:   toNewQuestions(req.Questions),
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"exercise": mapExercise(*e)})
}

func (h *CourseHttpHandler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req exerciseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	if err := h.srvc.DeleteExercise(r.Context(), teacherID, req.ExerciseID.ID()); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"deleted": req.ExerciseID.ID()})
}

func (h *CourseHttpHandler) ListGroupTimes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req exerciseRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := req.check(); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	gts, err := h.srvc.ListExerciseGroupTimes(r.Context(), teacherID, req.ExerciseID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"group_times": mapGroupTimes(gts)})
}

func (h *CourseHttpHandler) CreateGroupTime(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		exerciseRequest
		Name        string           `json:"name"`
		ScheduledAt httpjson.OptTime `json:"scheduled_at"`
	}
	log := logger.FromContext(r.Context())

	var req createRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if req.ExerciseID.ID() <= 0 || strings.TrimSpace(req.Name) == "" || req.ScheduledAt.Value == nil {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("exercise_id, name and scheduled_at required"))
		return
	}
	teacherID, err := h.teacherID(r, req.TeacherIdentity)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	gt, err := h.srvc.CreateGroupTime(r.Context(), teacherID, req.ExerciseID.ID(), req.Name, req.ScheduledAt.Value.In(time.UTC))
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"group_time": mapGroupTimes([]course.GroupTime{gt})[0]})
}
