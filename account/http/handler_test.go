package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/classroom/account"
	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("test")

type stubIdp struct{}

func (stubIdp) GetUserByID(ctx context.Context, id string) (identity.User, error) {
	if id == "u-confirmed" {
		at := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
		return identity.User{ID: id, Email: "ok@school.lv", EmailConfirmedAt: &at}, nil
	}
	return identity.User{}, errors.New("not found")
}

func (stubIdp) GenerateSignupLink(ctx context.Context, email string, redirectTo string) (string, error) {
	return "https://auth.test/verify", nil
}

func setupHandler(t *testing.T) (http.Handler, *account.AccountSrvc) {
	t.Helper()
	srvc := account.NewAccountSrvc(account.NewInMemRepo(), stubIdp{}, "https://class.test")
	h := accounthttp.NewAccountHttpHandler(srvc, jwtKey)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, srvc
}

func newJsonReq(method, path string, body map[string]interface{}) *http.Request {
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func post(t *testing.T, h http.Handler, path string, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, newJsonReq(http.MethodPost, path, body))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func assertErrorInHttpResponse(t *testing.T, w *httptest.ResponseRecorder, status int, expectedMsg string) {
	t.Helper()
	assert.Equal(t, status, w.Code)

	var errorResponse struct {
		Ok    bool   `json:"ok"`
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errorResponse))
	assert.False(t, errorResponse.Ok)
	assert.Equal(t, expectedMsg, errorResponse.Error)
	assert.NotEmpty(t, errorResponse.Code)
}

func TestAssistantSignupFlow(t *testing.T) {
	h, srvc := setupHandler(t)
	_, err := srvc.CreateAssistant(context.Background(), account.NewAssistant{Name: "TA", SpecialCode: "TA-1"})
	require.NoError(t, err)

	w, _ := post(t, h, "/assistants/validate-code/", map[string]interface{}{})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "special_code required")

	w, _ = post(t, h, "/assistants/validate-code/", map[string]interface{}{"special_code": "bad"})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Invalid special_code")

	w, resp := post(t, h, "/assistants/validate-code/", map[string]interface{}{"special_code": "TA-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["claimed"])

	w, resp = post(t, h, "/assistants/register/", map[string]interface{}{
		"special_code":     "TA-1",
		"email":            "ok@school.lv",
		"supabase_user_id": "u-confirmed",
		"first_name":       "Ilze",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["confirmed"])
	assert.Equal(t, "/dashboard/assistants/", resp["redirect_to"])
	assert.Nil(t, resp["confirm_link"])
	assert.Equal(t, "2024-09-01T10:00:00Z", resp["email_confirmed_at"])

	w, _ = post(t, h, "/assistants/register/", map[string]interface{}{
		"special_code":     "TA-1",
		"supabase_user_id": "u-intruder",
	})
	assertErrorInHttpResponse(t, w, http.StatusConflict, "This code is already assigned to someone else.")

	w, resp = post(t, h, "/assistants/api/assistant/lookup/", map[string]interface{}{"supabase_user_id": "u-confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	assistant := resp["assistant"].(map[string]any)
	assert.Equal(t, "Ilze", assistant["label"])
	assert.Equal(t, "TA-1", assistant["special_code"])

	w, _ = post(t, h, "/assistants/api/assistant/lookup/", map[string]interface{}{"email": "nobody@school.lv"})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Assistant not found")
}

func TestTeacherRegisterAndInfo(t *testing.T) {
	h, srvc := setupHandler(t)
	_, err := srvc.CreateTeacherCode(context.Background(), "Math", "Math 101", "MATH-101")
	require.NoError(t, err)

	w, resp := post(t, h, "/teachers/register/", map[string]interface{}{
		"special_code":     "MATH-101",
		"email":            "new@school.lv",
		"supabase_user_id": "u-pending",
		"first_name":       "Janis",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["created"])
	assert.Equal(t, false, resp["confirmed"])
	assert.Nil(t, resp["redirect_to"])
	assert.Regexp(t, `^TCHR-`, resp["teacher_uid"])

	w, resp = post(t, h, "/teachers/api/teacher/info/", map[string]interface{}{"email": "new@school.lv"})
	require.Equal(t, http.StatusOK, w.Code)
	teacher := resp["teacher"].(map[string]any)
	assert.Equal(t, "Janis", teacher["first_name"])

	w, resp = post(t, h, "/teachers/resend-confirmation/", map[string]interface{}{"email": "new@school.lv"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://auth.test/verify", resp["confirm_link"])
	assert.Equal(t, "https://class.test/teachers/signup/", resp["redirect_to"])

	w, _ = post(t, h, "/teachers/confirm-signup/", map[string]interface{}{})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "supabase_user_id required")
}

func TestTeacherManagesAssistantDirectory(t *testing.T) {
	h, srvc := setupHandler(t)
	ctx := context.Background()
	_, err := srvc.CreateTeacherCode(ctx, "Math", "Math 101", "MATH-101")
	require.NoError(t, err)
	_, err = srvc.RegisterTeacher(ctx, account.TeacherSignup{SpecialCode: "MATH-101", Email: "t@school.lv"})
	require.NoError(t, err)

	body := map[string]interface{}{"email": "t@school.lv", "name": "Zane", "special_code": "TA-9"}
	w, resp := post(t, h, "/teachers/api/courses/tas/create/", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Zane", resp["ta"].(map[string]any)["label"])

	w, _ = post(t, h, "/teachers/api/courses/tas/create/", body)
	assertErrorInHttpResponse(t, w, http.StatusConflict, "special_code already exists")

	w, resp = post(t, h, "/teachers/api/courses/tas/all/", map[string]interface{}{"email": "t@school.lv"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["tas"], 1)

	w, _ = post(t, h, "/teachers/api/courses/tas/all/", map[string]interface{}{"email": "stranger@school.lv"})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Teacher not found")
}

func TestStudentLoginIssuesToken(t *testing.T) {
	h, srvc := setupHandler(t)
	st, err := srvc.CreateStudent(context.Background(), account.NewStudent{
		Name: "Anna", Email: "anna@school.lv", StudentID: "S-001", Password: "secret",
	})
	require.NoError(t, err)

	w, _ := post(t, h, "/students/auth/login/", map[string]interface{}{"identifier": "S-001"})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "Identifier and password required")

	w, _ = post(t, h, "/students/auth/login/", map[string]interface{}{"identifier": "S-001", "password": "nope"})
	assertErrorInHttpResponse(t, w, http.StatusUnauthorized, "Invalid credentials")

	w, resp := post(t, h, "/students/auth/login/", map[string]interface{}{"identifier": "s-001", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dashboard/student/", resp["redirect"])

	claims, err := auth.ValidateJWT(resp["token"].(string), jwtKey)
	require.NoError(t, err)
	assert.Equal(t, st.ID, claims.StudentPK())
	assert.Equal(t, "S-001", claims.StudentID)

	w, resp = post(t, h, "/students/api/logout/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/auth/students/login/", resp["redirect"])
}

func TestMalformedJsonIsUnexpected(t *testing.T) {
	h, _ := setupHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/assistants/validate-code/", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unexpected_error"`)
}
