package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recoverykit/journey-engine/pkg/journey"
)

// ListJourneys returns the available programs ordered by focus area.
func (h *Handler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.GetAvailableJourneys())
}

func (h *Handler) GetJourneyWeek(w http.ResponseWriter, r *http.Request) {
	week, err := intParam(r, "week")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week")
		return
	}

	content := h.Engine.GetJourneyWeek(chi.URLParam(r, "focusArea"), week)
	if content == nil {
		writeError(w, http.StatusNotFound, "journey week not found")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// GetJourneyDay returns a day's content, recoloured for ?stage= when given.
func (h *Handler) GetJourneyDay(w http.ResponseWriter, r *http.Request) {
	day, err := intParam(r, "day")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}
	if err := journey.ValidateDay(day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	content := h.Engine.GetJourneyDay(chi.URLParam(r, "focusArea"), day, r.URL.Query().Get("stage"))
	if content == nil {
		writeError(w, http.StatusNotFound, "journey day not found")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (h *Handler) ListPhases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.GetAvailablePhases())
}

// GetPhase returns 404 for unknown stages rather than the default overlay.
func (h *Handler) GetPhase(w http.ResponseWriter, r *http.Request) {
	stage := chi.URLParam(r, "stage")
	if !h.Engine.HasPhase(stage) {
		writeError(w, http.StatusNotFound, "phase not found")
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.GetPhaseModifier(stage))
}
