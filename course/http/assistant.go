package http

import (
	"net/http"
	"time"

	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
)

type assignedCourse struct {
	Course
	Teacher   *Teacher   `json:"teacher"`
	Exercises []Exercise `json:"exercises"`
}

func (h *CourseHttpHandler) assignedCourses(w http.ResponseWriter, r *http.Request) ([]course.AssignedCourse, bool) {
	log := logger.FromContext(r.Context())

	var req accounthttp.AssistantIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return nil, false
	}
	a, err := h.srvc.Assistant(r.Context(), req.Ref())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return nil, false
	}
	cs, err := h.srvc.AssignedCourses(r.Context(), a.ID)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return nil, false
	}
	return cs, true
}

func (h *CourseHttpHandler) AssignedCourses(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.assignedCourses(w, r)
	if !ok {
		return
	}
	out := make([]assignedCourse, 0, len(cs))
	for _, c := range cs {
		out = append(out, assignedCourse{
			Course:    mapCourse(c.Course),
			Teacher:   mapTeacher(c.Teacher),
			Exercises: mapExercises(c.Exercises),
		})
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"courses": out})
}

// AssistantExercises groups exercises under a short course header.
func (h *CourseHttpHandler) AssistantExercises(w http.ResponseWriter, r *http.Request) {
	type courseHeader struct {
		ID      int64    `json:"id"`
		Title   string   `json:"title"`
		Teacher *Teacher `json:"teacher"`
	}
	type exerciseItem struct {
		ID             int64      `json:"id"`
		Title          string     `json:"title"`
		Details        string     `json:"details"`
		TotalPoints    int        `json:"total_points"`
		StartTime      *time.Time `json:"start_time"`
		Deadline       *time.Time `json:"deadline"`
		QuestionsCount int        `json:"questions_count"`
	}
	type group struct {
		Course    courseHeader   `json:"course"`
		Exercises []exerciseItem `json:"exercises"`
	}

	cs, ok := h.assignedCourses(w, r)
	if !ok {
		return
	}
	out := make([]group, 0, len(cs))
	for _, c := range cs {
		items := make([]exerciseItem, 0, len(c.Exercises))
		for _, e := range c.Exercises {
			items = append(items, exerciseItem{
				ID:             e.ID,
				Title:          e.Title,
				Details:        e.Details,
				TotalPoints:    e.TotalPoints,
				StartTime:      e.StartTime,
				Deadline:       e.Deadline,
				QuestionsCount: e.QuestionsCount,
			})
		}
		out = append(out, group{
			Course: courseHeader{
				ID:      c.Course.ID,
				Title:   c.Course.Title,
				Teacher: mapTeacher(c.Teacher),
			},
			Exercises: items,
		})
	}
	httpjson.WriteSuccessJson(w, httpjson.Fields{"courses": out})
}
