package http

import (
	"net/http"

	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/srvcerror"
)

func (h *CourseHttpHandler) StudentGroupTimes(w http.ResponseWriter, r *http.Request) {
	type groupTimesRequest struct {
		ExerciseID httpjson.OptInt `json:"exercise_id"`
	}
	log := logger.FromContext(r.Context())

	var req groupTimesRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	claims, err := auth.StudentFromContext(r.Context())
	if err != nil || req.ExerciseID.ID() <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("exercise_id required and auth"))
		return
	}

	gts, selected, err := h.srvc.StudentGroupTimes(r.Context(), claims.StudentPK(), req.ExerciseID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{
		"group_times":            mapGroupTimes(gts),
		"selected_group_time_id": selected,
	})
}

func (h *CourseHttpHandler) SelectGroupTime(w http.ResponseWriter, r *http.Request) {
	type selectRequest struct {
		ExerciseID  httpjson.OptInt `json:"exercise_id"`
		GroupTimeID httpjson.OptInt `json:"group_time_id"`
	}
	log := logger.FromContext(r.Context())

	var req selectRequest
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	claims, err := auth.StudentFromContext(r.Context())
	if err != nil || req.ExerciseID.ID() <= 0 || req.GroupTimeID.ID() <= 0 {
		httpjson.HandleError(log, w, srvcerror.ErrValidation("exercise_id, group_time_id required and auth"))
		return
	}

	id, err := h.srvc.SelectGroupTime(r.Context(), claims.StudentPK(), req.ExerciseID.ID(), req.GroupTimeID.ID())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"selected_group_time_id": id})
}
