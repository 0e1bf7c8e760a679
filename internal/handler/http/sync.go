package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/utils"
	"github.com/ledgerkeep/ledgerkeep/models"
)

// upsertBatch accepts one batch of staged records for one table and returns
// the per-id verdict. The authenticated user owns every record in the batch;
// a body naming a different user is rejected outright.
func (h *Handler) upsertBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, table, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var raw models.RawUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		log.Err(err).Str("func", "*Handler.upsertBatch").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if raw.UserID != 0 && raw.UserID != userID {
		log.Warn().Str("func", "*Handler.upsertBatch").Int64("body_user_id", raw.UserID).Msg("record batch names a different user")
		http.Error(w, "records belong to a different user", http.StatusForbidden)
		return
	}

	records, err := models.DecodeWireRecords(table, raw.Records)
	if err != nil {
		log.Err(err).Str("func", "*Handler.upsertBatch").Str("table", table.String()).Msg("undecodable record batch")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response, err := h.sync.UpsertBatch(ctx, userID, table, records)
	if err != nil {
		log.Err(err).Str("func", "*Handler.upsertBatch").Str("table", table.String()).Msg("error upserting record batch")
		http.Error(w, "error upserting record batch", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// changes returns one page of records newer than the submitted high-water
// mark, tombstones included, ordered by version.
func (h *Handler) changes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.changes").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.ChangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.changes").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if !req.Table.Valid() {
		http.Error(w, "unknown table", http.StatusBadRequest)
		return
	}

	records, err := h.sync.Changes(ctx, userID, req.Table, req.SinceVersion, req.Limit)
	if err != nil {
		log.Err(err).Str("func", "*Handler.changes").Str("table", req.Table.String()).Msg("error loading change feed")
		http.Error(w, "error loading change feed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.WireRecordList{Records: records}, http.StatusOK)
}

// summary is the cheap pre-pull probe: the latest version across the user's
// tables and whether anything is newer than the "since" query parameter.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.summary").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var since int64
	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		parsed, err := strconv.ParseInt(sinceParam, 10, 64)
		if err != nil {
			http.Error(w, "invalid `since` parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	latest, err := h.sync.LatestVersion(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.summary").Msg("error loading latest version")
		http.Error(w, "error loading latest version", statusFromError(err))
		return
	}

	response := models.SummaryResponse{
		HasChanges:          latest > since,
		LatestServerVersion: latest,
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// snapshot returns one page of a table's live records for initial hydration.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, table, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req models.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.snapshot").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	records, err := h.sync.Snapshot(ctx, userID, table, req.Offset, req.Limit)
	if err != nil {
		log.Err(err).Str("func", "*Handler.snapshot").Str("table", table.String()).Msg("error loading snapshot page")
		http.Error(w, "error loading snapshot page", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.WireRecordList{Records: records}, http.StatusOK)
}

// fetchByIDs returns specific records by id, tombstones included. The client
// uses it to capture the server side of a version conflict.
func (h *Handler) fetchByIDs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, table, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req models.FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.fetchByIDs").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "no record ids were given", http.StatusBadRequest)
		return
	}

	records, err := h.sync.FetchByIDs(ctx, userID, table, req.IDs)
	if err != nil {
		log.Err(err).Str("func", "*Handler.fetchByIDs").Str("table", table.String()).Msg("error fetching records")
		http.Error(w, "error fetching records", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.WireRecordList{Records: records}, http.StatusOK)
}

// requestScope resolves the authenticated user and the {table} URL
// parameter, writing the error response itself when either is missing.
func (h *Handler) requestScope(w http.ResponseWriter, r *http.Request) (int64, models.Table, bool) {
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		log.Error().Str("func", "*Handler.requestScope").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return 0, "", false
	}

	table := models.Table(chi.URLParam(r, "table"))
	if !table.Valid() {
		log.Warn().Str("func", "*Handler.requestScope").Str("table", table.String()).Msg("unknown table requested")
		http.Error(w, "unknown table", http.StatusBadRequest)
		return 0, "", false
	}

	return userID, table, true
}
