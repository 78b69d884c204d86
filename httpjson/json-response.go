package httpjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/programme-lv/classroom/srvcerror"
)

// Fields are merged into the top level of a success envelope next to "ok".
type Fields map[string]any

type errorResponse struct {
	Ok      bool   `json:"ok"`
	ErrMsg  string `json:"error"`
	ErrCode string `json:"code,omitempty"`
}

func WriteSuccessJson(w http.ResponseWriter, fields Fields) {
	resp := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		resp[k] = v
	}
	resp["ok"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func WriteErrorJson(w http.ResponseWriter, errMsg string, statusCode int, errCode string) {
	resp := errorResponse{
		Ok:      false,
		ErrMsg:  errMsg,
		ErrCode: errCode,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// HandleError writes err as an error envelope. Service errors keep their
// status and code, anything else becomes a 500 carrying the raw message.
func HandleError(logger *slog.Logger, w http.ResponseWriter, err error) {
	srvcErr := &srvcerror.Error{}
	if errors.As(err, &srvcErr) {
		if srvcErr.DebugInfo() != nil {
			logger.Warn("service error", "error", err, "debug", srvcErr.DebugInfo())
		} else {
			logger.Warn("service error", "error", err)
		}
		if srvcErr.HttpStatusCode() == http.StatusInternalServerError {
			logger.Error("internal server error", "error", err)
		}
		WriteErrorJson(w, srvcErr.Error(), srvcErr.HttpStatusCode(), srvcErr.ErrorCode())
		return
	}
	logger.Error("unexpected error", "error", err)
	WriteErrorJson(w, err.Error(), http.StatusInternalServerError, srvcerror.ErrCodeUnexpected)
}

// MethodNotAllowed is installed as the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	e := srvcerror.ErrMethodNotAllowed()
	WriteErrorJson(w, e.Error(), e.HttpStatusCode(), e.ErrorCode())
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorJson(w, "Not found", http.StatusNotFound, srvcerror.ErrCodeNotFound)
}
