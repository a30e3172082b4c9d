package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/logbook"
	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

// ReadingsHandler handles /api/sources/{sourceID}/readings/*. Requires the
// auth guard. Source ownership is resolved before any reading is touched,
// so foreign readings are as invisible as foreign sources.
type ReadingsHandler struct {
	sources       ports.SourceRepository
	readings      ports.ReadingRepository
	createReading *logbook.CreateReading
	editReading   *logbook.EditReading
	log           zerolog.Logger
}

func NewReadingsHandler(sources ports.SourceRepository, readings ports.ReadingRepository,
	createReading *logbook.CreateReading, editReading *logbook.EditReading, log zerolog.Logger) *ReadingsHandler {
	return &ReadingsHandler{
		sources:       sources,
		readings:      readings,
		createReading: createReading,
		editReading:   editReading,
		log:           log,
	}
}

type readingBody struct {
	// Timestamp is RFC 3339; zero means "now" on create, "keep" on edit.
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

func (h *ReadingsHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID, ok := sourceParam(w, r)
	if !ok {
		return
	}
	source, err := h.sources.GetByID(r.Context(), ownerID, sourceID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if source == nil {
		writeErr(w, http.StatusNotFound, "", "source not found")
		return
	}
	since, until, err := timeRange(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid start or end timestamp")
		return
	}
	limit, offset := listParams(r)
	readings, err := h.readings.List(r.Context(), sourceID, since, until, limit, offset)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	out := make([]map[string]interface{}, 0, len(readings))
	for _, rd := range readings {
		out = append(out, readingResponse(rd))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReadingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID, ok := sourceParam(w, r)
	if !ok {
		return
	}
	var body readingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	reading, err := h.createReading.Execute(r.Context(), logbook.CreateReadingInput{
		OwnerID:    ownerID,
		SourceID:   sourceID,
		RecordedAt: body.Timestamp,
		Values:     body.Values,
	})
	if err != nil {
		h.writeLogbookErr(w, r, "reading.create", ownerID, err)
		return
	}
	AuditLog(h.log, r, "reading.create", ownerID.String(), true, "")
	w.Header().Set("Location", "/api/sources/"+sourceID.String()+"/readings/"+reading.ID.String())
	writeJSON(w, http.StatusCreated, readingResponse(reading))
}

func (h *ReadingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID, ok := sourceParam(w, r)
	if !ok {
		return
	}
	readingID, ok := readingParam(w, r)
	if !ok {
		return
	}
	source, err := h.sources.GetByID(r.Context(), ownerID, sourceID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if source == nil {
		writeErr(w, http.StatusNotFound, "", "source not found")
		return
	}
	reading, err := h.readings.GetByID(r.Context(), sourceID, readingID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if reading == nil {
		writeErr(w, http.StatusNotFound, "", "reading not found")
		return
	}
	writeJSON(w, http.StatusOK, readingResponse(reading))
}

// Update applies an explicit edit; the repository appends the audit entry in
// the same transaction as the value change.
func (h *ReadingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID, ok := sourceParam(w, r)
	if !ok {
		return
	}
	readingID, ok := readingParam(w, r)
	if !ok {
		return
	}
	var body readingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	reading, err := h.editReading.Execute(r.Context(), logbook.EditReadingInput{
		OwnerID:    ownerID,
		SourceID:   sourceID,
		ReadingID:  readingID,
		RecordedAt: body.Timestamp,
		Values:     body.Values,
	})
	if err != nil {
		h.writeLogbookErr(w, r, "reading.edit", ownerID, err)
		return
	}
	AuditLog(h.log, r, "reading.edit", ownerID.String(), true, "")
	writeJSON(w, http.StatusOK, readingResponse(reading))
}

func (h *ReadingsHandler) writeLogbookErr(w http.ResponseWriter, r *http.Request, event string, ownerID domain.UserID, err error) {
	AuditLog(h.log, r, event, ownerID.String(), false, err.Error())
	switch {
	case errors.Is(err, domerrors.ErrNotFound):
		writeErr(w, http.StatusNotFound, "", "not found")
	case errors.Is(err, domerrors.ErrUnknownMetric):
		writeErr(w, http.StatusBadRequest, "", err.Error())
	default:
		h.log.Error().Err(err).Str("event", event).Msg("logbook operation failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
	}
}

func readingResponse(rd *domain.Reading) map[string]interface{} {
	return map[string]interface{}{
		"id":        rd.ID.String(),
		"timestamp": rd.RecordedAt,
		"values":    rd.Values,
	}
}

func readingParam(w http.ResponseWriter, r *http.Request) (domain.ReadingID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "readingID"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "", "reading not found")
		return domain.ReadingID{}, false
	}
	return domain.NewReadingID(id), true
}

// timeRange parses optional start/end query params (RFC 3339).
func timeRange(r *http.Request) (since, until time.Time, err error) {
	if s := r.URL.Query().Get("start"); s != "" {
		if since, err = time.Parse(time.RFC3339, s); err != nil {
			return
		}
	}
	if e := r.URL.Query().Get("end"); e != "" {
		if until, err = time.Parse(time.RFC3339, e); err != nil {
			return
		}
	}
	return
}
