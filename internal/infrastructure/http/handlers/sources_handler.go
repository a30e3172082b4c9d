package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/logbook"
	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

const defaultListLimit = 20
const maxListLimit = 100

// SourcesHandler handles /api/sources/*. Requires the auth guard; every
// operation is scoped to the authenticated owner, and a source owned by
// another user is reported as not found.
type SourcesHandler struct {
	sources      ports.SourceRepository
	readings     ports.ReadingRepository
	createSource *logbook.CreateSource
	updateSource *logbook.UpdateSource
	deleteSource *logbook.DeleteSource
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewSourcesHandler(sources ports.SourceRepository, readings ports.ReadingRepository,
	createSource *logbook.CreateSource, updateSource *logbook.UpdateSource,
	deleteSource *logbook.DeleteSource, log zerolog.Logger) *SourcesHandler {
	return &SourcesHandler{
		sources:      sources,
		readings:     readings,
		createSource: createSource,
		updateSource: updateSource,
		deleteSource: deleteSource,
		validate:     validator.New(),
		log:          log,
	}
}

type sourceBody struct {
	Name        string            `json:"name" validate:"required,max=60"`
	Type        string            `json:"type" validate:"max=60"`
	Description string            `json:"description" validate:"max=80"`
	Metrics     map[string]string `json:"metrics"`
}

func (h *SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := listParams(r)
	items, err := h.sources.List(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]interface{}{
			"id":            it.ID.String(),
			"name":          it.Name,
			"type":          it.Type,
			"reading_count": it.ReadingCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body sourceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if !ValidMetrics(body.Metrics) {
		writeErr(w, http.StatusBadRequest, "", "invalid metric name or unit")
		return
	}
	source, err := h.createSource.Execute(r.Context(), logbook.CreateSourceInput{
		OwnerID:     ownerID,
		Name:        body.Name,
		Type:        body.Type,
		Description: body.Description,
		Metrics:     body.Metrics,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("create source failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditLog(h.log, r, "source.create", ownerID.String(), true, "")
	w.Header().Set("Location", "/api/sources/"+source.ID.String())
	writeJSON(w, http.StatusCreated, sourceResponse(source))
}

func (h *SourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, sourceResponse(source))
}

func (h *SourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID, ok := sourceParam(w, r)
	if !ok {
		return
	}
	var body sourceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if !ValidMetrics(body.Metrics) {
		writeErr(w, http.StatusBadRequest, "", "invalid metric name or unit")
		return
	}
	source, err := h.updateSource.Execute(r.Context(), logbook.UpdateSourceInput{
		OwnerID:     ownerID,
		SourceID:    sourceID,
		Name:        body.Name,
		Type:        body.Type,
		Description: body.Description,
		Metrics:     body.Metrics,
	})
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "", "source not found")
			return
		}
		h.log.Error().Err(err).Msg("update source failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditLog(h.log, r, "source.update", ownerID.String(), true, "")
	writeJSON(w, http.StatusOK, sourceResponse(source))
}

// Delete removes a source and, by cascade, its readings. Audit entries for
// past edits are retained.
func (h *SourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID, ok := sourceParam(w, r)
	if !ok {
		return
	}
	if err := h.deleteSource.Execute(r.Context(), ownerID, sourceID); err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "", "source not found")
			return
		}
		h.log.Error().Err(err).Msg("delete source failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditLog(h.log, r, "source.delete", ownerID.String(), true, "")
	w.WriteHeader(http.StatusNoContent)
}

// History returns the audit trail of reading edits for one source.
func (h *SourcesHandler) History(w http.ResponseWriter, r *http.Request) {
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
	limit, offset := listParams(r)
	entries, err := h.readings.ListChanges(r.Context(), sourceID, limit, offset)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"id":         e.ID.String(),
			"reading_id": e.ReadingID.String(),
			"changed_by": e.ChangedBy.String(),
			"changed_at": e.ChangedAt,
			"old_values": e.OldValues,
			"new_values": e.NewValues,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func sourceResponse(s *domain.Source) map[string]interface{} {
	return map[string]interface{}{
		"id":          s.ID.String(),
		"name":        s.Name,
		"type":        s.Type,
		"description": s.Description,
		"metrics":     s.Metrics,
		"created_at":  s.CreatedAt,
	}
}

// sourceParam parses the {sourceID} path segment. A non-uuid id cannot name
// any source, so it reports not found rather than a validation error.
func sourceParam(w http.ResponseWriter, r *http.Request) (domain.SourceID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sourceID"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "", "source not found")
		return domain.SourceID{}, false
	}
	return domain.NewSourceID(id), true
}

func listParams(r *http.Request) (limit, offset int) {
	limit = defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
			if limit > maxListLimit {
				limit = maxListLimit
			}
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
