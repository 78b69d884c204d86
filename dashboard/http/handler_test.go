package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/dashboard"
	dashboardhttp "github.com/programme-lv/classroom/dashboard/http"
	"github.com/programme-lv/classroom/s3bucket"
	"github.com/programme-lv/classroom/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("test")

type env struct {
	h       http.Handler
	token   string
	courses *course.CourseSrvc
	teacher int64
	ta      int64
}

func setup(t *testing.T, ttl time.Duration) env {
	t.Helper()
	ctx := context.Background()
	accounts := account.NewAccountSrvc(account.NewInMemRepo(), nil, "")
	_, err := accounts.CreateTeacherCode(ctx, "Math", "Math 101", "MATH-101")
	require.NoError(t, err)
	teacher, err := accounts.RegisterTeacher(ctx, account.TeacherSignup{SpecialCode: "MATH-101", Email: "t@school.lv"})
	require.NoError(t, err)
	ta, err := accounts.CreateAssistant(ctx, account.NewAssistant{Name: "Ta", SpecialCode: "TA-1", Email: "ta@school.lv"})
	require.NoError(t, err)
	st, err := accounts.CreateStudent(ctx, account.NewStudent{Name: "Anna", Email: "a@s.lv", StudentID: "S-1", Password: "pw"})
	require.NoError(t, err)
	token, err := auth.GenerateJWT(st.ID, st.StudentID, st.Name, st.Email, jwtKey)
	require.NoError(t, err)

	courseRepo := course.NewInMemRepo()
	courses := course.NewCourseSrvc(courseRepo, accounts)
	c, err := courses.CreateCourse(ctx, teacher.TeacherID, "Algebra", "Linear equations")
	require.NoError(t, err)
	_, _, err = courses.EnrollStudent(ctx, teacher.TeacherID, c.ID, "S-1")
	require.NoError(t, err)
	_, err = courses.AssignAssistant(ctx, teacher.TeacherID, c.ID, ta.ID)
	require.NoError(t, err)
	_, _, err = courses.CreateExercise(ctx, teacher.TeacherID, course.NewExercise{
		CourseID:  c.ID,
		Title:     "Homework 1",
		Questions: []course.NewQuestion{{Text: "one", Points: 3}},
	})
	require.NoError(t, err)

	sessions := session.NewSessionSrvc(session.NewInMemRepo(courseRepo), courses, accounts,
		s3bucket.NewMemBucket("https://files.example"), session.Options{})
	srvc := dashboard.NewDashboardSrvc(courses, accounts, sessions)

	r := chi.NewRouter()
	r.Use(auth.GetJwtAuthMiddleware(jwtKey))
	dashboardhttp.NewDashboardHttpHandler(srvc, ttl).RegisterRoutes(r)
	return env{h: r, token: token, courses: courses, teacher: teacher.TeacherID, ta: ta.ID}
}

func (e env) post(t *testing.T, path string, body map[string]any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestAssistantCounts(t *testing.T) {
	e := setup(t, time.Minute)

	w, resp := e.post(t, "/assistants/api/dashboard/counts/", map[string]any{"assistant_code": "TA-1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(1), resp["courses_count"])
	assert.Equal(t, float64(1), resp["students_total"])

	assistant := resp["assistant"].(map[string]any)
	assert.Equal(t, "Ta", assistant["label"])
	assert.Equal(t, "TA-1", assistant["special_code"])

	teachers := resp["teachers"].([]any)
	require.Len(t, teachers, 1)
	assert.Equal(t, "t@school.lv", teachers[0].(map[string]any)["email"])

	recent := resp["most_recent_exercise"].(map[string]any)
	assert.Equal(t, "Homework 1", recent["title"])
	assert.Equal(t, "Algebra", recent["course_title"])
	assert.Nil(t, resp["current_task"])
	assert.Nil(t, resp["ending_soon_task"])
}

func TestAssistantCountsUnknown(t *testing.T) {
	e := setup(t, time.Minute)

	w, resp := e.post(t, "/assistants/api/dashboard/counts/", map[string]any{"assistant_code": "nope"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, resp["ok"])
}

func TestCountsAreCached(t *testing.T) {
	e := setup(t, time.Minute)
	body := map[string]any{"teacher_id": e.teacher}

	w, resp := e.post(t, "/teachers/api/dashboard/counts/", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), resp["courses_count"])
	assert.Equal(t, float64(1), resp["exercises_count"])
	assert.Equal(t, float64(0), resp["pending_reviews"])

	_, err := e.courses.CreateCourse(context.Background(), e.teacher, "Geometry", "")
	require.NoError(t, err)

	_, resp = e.post(t, "/teachers/api/dashboard/counts/", body, "")
	assert.Equal(t, float64(1), resp["courses_count"])
}

func TestStudentEndpointsNeedToken(t *testing.T) {
	e := setup(t, time.Minute)

	for _, path := range []string{"/students/api/dashboard/summary/", "/students/api/exercises/full/"} {
		w, resp := e.post(t, path, map[string]any{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Not authenticated", resp["error"])
	}
}

func TestStudentSummary(t *testing.T) {
	e := setup(t, time.Minute)

	w, resp := e.post(t, "/students/api/dashboard/summary/", map[string]any{}, e.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	courses := resp["courses"].([]any)
	require.Len(t, courses, 1)
	c := courses[0].(map[string]any)
	assert.Equal(t, "Algebra", c["title"])
	assert.Equal(t, "t@school.lv", c["teacher_email"])

	assert.Len(t, resp["exercises_uncompleted"], 1)
	assert.Len(t, resp["exercises_no_time_selected"], 1)
	assert.Equal(t, []any{}, resp["evidence_requests"])
}

func TestStudentExercises(t *testing.T) {
	e := setup(t, time.Minute)

	w, resp := e.post(t, "/students/api/exercises/full/", map[string]any{}, e.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	student := resp["student"].(map[string]any)
	assert.Equal(t, "S-1", student["student_id"])

	stats := resp["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["exercises_count"])
	assert.Equal(t, float64(1), stats["not_signed_up_count"])
	assert.Equal(t, float64(0), stats["sessions_attended_count"])
	assert.Nil(t, stats["avg_score"])

	exercises := resp["exercises"].([]any)
	require.Len(t, exercises, 1)
	ex := exercises[0].(map[string]any)
	assert.Equal(t, "Homework 1", ex["title"])
	assert.Equal(t, "Linear equations", ex["course"].(map[string]any)["description"])
	assert.Len(t, ex["questions"], 1)
	assert.Equal(t, []any{}, ex["group_times"])
	assert.Nil(t, ex["selected_group_time_id"])

	assert.Equal(t, []any{}, resp["signed_up"])
	assert.Equal(t, []any{}, resp["sessions_attended"])
}
