package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/recoverykit/journey-engine/pkg/common"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/state"
)

// InitializeUser creates the user's record. 201 when created, 200 when it
// already existed; the existing record is never modified.
func (h *Handler) InitializeUser(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.InitializeUser")
	defer scope.Finish()

	var profile engagement.Profile
	if err := decodeJSON(r, &profile); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	session := h.session(r)
	progress, created, err := session.Initialize(scope.Ctx, profile)
	if err != nil {
		scope.TraceError(err)
		writeEngineError(w, scope.Log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		scope.Log.WithField("userId", session.UserID()).Info("user initialized")
	}
	writeJSON(w, status, progress)
}

type updateProfileReq struct {
	FocusAreas   []string `json:"focusAreas"`
	JourneyStage string   `json:"journeyStage"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	if err := h.session(r).UpdateProfile(r.Context(), req.FocusAreas, req.JourneyStage); err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.session(r).GetJourneyProgress(r.Context())
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type dayUnlockedResp struct {
	Day      int               `json:"day"`
	Unlocked bool              `json:"unlocked"`
	Status   journey.DayStatus `json:"status"`
}

func (h *Handler) GetDayUnlocked(w http.ResponseWriter, r *http.Request) {
	day, err := intParam(r, "day")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}
	if err := journey.ValidateDay(day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session := h.session(r)
	unlocked, err := session.IsDayUnlocked(r.Context(), day)
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	status, err := session.DayStatus(r.Context(), day)
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	writeJSON(w, http.StatusOK, dayUnlockedResp{Day: day, Unlocked: unlocked, Status: status})
}

type logActivityResp struct {
	Outcome      *engagement.ActivityOutcome `json:"outcome"`
	DayCompleted bool                        `json:"dayCompleted"`
	Triggered    []string                    `json:"triggered"`
}

// LogActivity runs a completion event through the pipeline. An absent user
// gets a null outcome.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	scope := common.GetScopeFromContext(r.Context(), "Handler.LogActivity")
	defer scope.Finish()

	var in engagement.ActivityInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.DayNumber != 0 {
		if err := journey.ValidateDay(in.DayNumber); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	session := h.session(r)
	scope.AddBaggage("userId", session.UserID())
	scope.AddBaggage("activityType", string(in.Type))

	result, err := session.LogActivity(scope.Ctx, in)
	if err != nil {
		scope.TraceError(err)
		writeEngineError(w, scope.Log, err)
		return
	}

	resp := logActivityResp{
		Outcome:      result.Outcome,
		DayCompleted: result.DayCompleted(),
		Triggered:    make([]string, 0, len(result.Triggers)),
	}
	for _, trigger := range result.Triggers {
		resp.Triggered = append(resp.Triggered, trigger.RuleID)
	}
	if resp.DayCompleted {
		scope.TraceEvent("journey day completed")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetActivityLog(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultActivityLimit)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	entries, err := h.session(r).GetActivityLog(r.Context(), limit)
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	if entries == nil {
		entries = []state.ActivityLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) GetTodaysStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.session(r).GetTodaysStats(r.Context())
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.session(r).GetStreakData(r.Context())
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

// GetCalendar returns date -> completed|missed for ?monthsBack= months.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	monthsBack, err := queryInt(r, "monthsBack", DefaultCalendarMonths)
	if err != nil || monthsBack < 0 || monthsBack > MaxCalendarMonths {
		writeError(w, http.StatusBadRequest, "invalid monthsBack")
		return
	}

	calendar, err := h.session(r).GetCalendarData(r.Context(), monthsBack)
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	if calendar == nil {
		calendar = map[string]state.CalendarStatus{}
	}
	writeJSON(w, http.StatusOK, calendar)
}

type dailyResetResp struct {
	Reset bool `json:"reset"`
}

func (h *Handler) DailyReset(w http.ResponseWriter, r *http.Request) {
	reset, err := h.session(r).CheckAndResetDaily(r.Context())
	if err != nil {
		writeEngineError(w, logEntry(r), err)
		return
	}
	writeJSON(w, http.StatusOK, dailyResetResp{Reset: reset})
}
