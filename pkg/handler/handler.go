package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/engine"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/notifier"
	"github.com/sirupsen/logrus"
)

const (
	// Query defaults
	DefaultActivityLimit     = 20
	DefaultNotificationLimit = 10
	DefaultCalendarMonths    = 3
	MaxCalendarMonths        = 12
)

// Handler serves the journey engine over JSON.
type Handler struct {
	Engine *engine.Engine
}

// New creates a handler for the given engine.
func New(eng *engine.Engine) *Handler {
	return &Handler{Engine: eng}
}

// Routes mounts the catalog and per-user endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/journeys", h.ListJourneys)
	r.Get("/journeys/{focusArea}/weeks/{week}", h.GetJourneyWeek)
	r.Get("/journeys/{focusArea}/days/{day}", h.GetJourneyDay)
	r.Get("/phases", h.ListPhases)
	r.Get("/phases/{stage}", h.GetPhase)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Put("/", h.InitializeUser)
		r.Patch("/profile", h.UpdateProfile)
		r.Get("/progress", h.GetProgress)
		r.Get("/days/{day}/unlocked", h.GetDayUnlocked)

		r.Post("/activities", h.LogActivity)
		r.Get("/activities", h.GetActivityLog)
		r.Get("/stats/today", h.GetTodaysStats)
		r.Get("/streak", h.GetStreak)
		r.Get("/calendar", h.GetCalendar)
		r.Post("/daily-reset", h.DailyReset)

		r.Post("/reminders", h.ScheduleReminders)
		r.Get("/reminders", h.GetReminders)
		r.Delete("/reminders/{day}", h.ClearReminders)

		r.Post("/notifications/permission", h.NotificationPermission)
		r.Get("/notifications", h.GetNotifications)
	})
}

func (h *Handler) session(r *http.Request) *engine.Session {
	return h.Engine.Session(chi.URLParam(r, "userID"))
}

func logEntry(r *http.Request) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"userId":    chi.URLParam(r, "userID"),
		"requestId": chimw.GetReqID(r.Context()),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps caller misuse to 400 and everything else to 500.
func writeEngineError(w http.ResponseWriter, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, journey.ErrInvalidDay),
		errors.Is(err, engagement.ErrInvalidActivity),
		errors.Is(err, notifier.ErrInvalidPermission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, notifier.ErrUnsupported):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

// queryInt reads an optional integer query parameter. Missing means fallback.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
