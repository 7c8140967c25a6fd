package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/recoverykit/journey-engine/pkg/common"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/state"
)

type scheduleRemindersReq struct {
	Day            int  `json:"day"`
	CompletedToday bool `json:"completedToday"`
}

// ScheduleReminders replaces the pending reminders for a day. Completed days
// and trigger times already in the past produce no reminders.
func (h *Handler) ScheduleReminders(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.ScheduleReminders")
	defer scope.Finish()

	var req scheduleRemindersReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := journey.ValidateDay(req.Day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reminders, err := h.session(r).ScheduleReminders(scope.Ctx, req.Day, req.CompletedToday)
	if err != nil {
		scope.TraceError(err)
		writeEngineError(w, scope.Log, err)
		return
	}
	if reminders == nil {
		reminders = []state.ReminderSchedule{}
	}
	writeJSON(w, http.StatusCreated, reminders)
}

func (h *Handler) GetReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.session(r).GetScheduledNotifications(r.Context())
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	if reminders == nil {
		reminders = []state.ReminderSchedule{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (h *Handler) ClearReminders(w http.ResponseWriter, r *http.Request) {
	day, err := intParam(r, "day")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}

	if err := h.session(r).ClearDayReminders(r.Context(), day); err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type permissionReq struct {
	Permission state.NotificationPermission `json:"permission"`
}

type permissionResp struct {
	Permission state.NotificationPermission `json:"permission"`
}

// NotificationPermission with an empty body asks for permission and returns
// the resulting state. A body with {"permission": ...} records the user's
// answer instead.
func (h *Handler) NotificationPermission(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.NotificationPermission")
	defer scope.Finish()

	var req permissionReq
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	session := h.session(r)
	if req.Permission == "" {
		permission, err := session.RequestNotificationPermission(scope.Ctx)
		if err != nil {
			scope.TraceError(err)
			writeEngineError(w, scope.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, permissionResp{Permission: permission})
		return
	}

	if err := session.SetNotificationPermission(scope.Ctx, req.Permission); err != nil {
		writeEngineError(w, scope.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionResp{Permission: req.Permission})
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultNotificationLimit)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	toasts, err := h.session(r).GetNotifications(r.Context(), limit)
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	if toasts == nil {
		toasts = []state.Toast{}
	}
	writeJSON(w, http.StatusOK, toasts)
}
