package account

import (
	"net/http"

	"github.com/programme-lv/classroom/srvcerror"
)

const ErrCodeInvalidSpecialCode = "invalid_special_code"

func newErrInvalidSpecialCode() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidSpecialCode,
		"Invalid special_code",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeCodeAlreadyClaimed = "code_already_claimed"

func newErrCodeAlreadyClaimed() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeCodeAlreadyClaimed,
		"This code is already assigned to someone else.",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeSpecialCodeExists = "special_code_exists"

func newErrSpecialCodeExists() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSpecialCodeExists,
		"special_code already exists",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeAssistantNotFound = "assistant_not_found"

func newErrAssistantNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeAssistantNotFound,
		"Assistant not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeTeacherNotFound = "teacher_not_found"

func newErrTeacherNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTeacherNotFound,
		"Teacher not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeStudentNotFound = "student_not_found"

func newErrStudentNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeStudentNotFound,
		"Student not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeStudentExists = "student_exists"

func newErrStudentExists() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeStudentExists,
		"student with this email or student_id already exists",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeInvalidCredentials = "invalid_credentials"

func newErrInvalidCredentials() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidCredentials,
		"Invalid credentials",
	).SetHttpStatusCode(http.StatusUnauthorized)
}
