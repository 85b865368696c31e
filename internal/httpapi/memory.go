package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"assistd/pkg/types"
)

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func pageLimit(r *http.Request) (int, bool) {
	limit, ok := intParam(r, "limit", defaultPageSize)
	if ok && limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, ok
}

func listMemoryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := pageLimit(r)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		offset, ok := intParam(r, "offset", 0)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		recs, err := svc.ListRecords(ctx, limit, offset)
		if err != nil {
			zlog.Error().Err(err).Msg("list memory failed")
			status, msg := statusFor(err)
			writeJSONError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func saveMemoryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec types.ConversationRecord
		if status, msg := decodeJSONBody(w, r, &rec); status != 0 {
			writeJSONError(w, status, msg)
			return
		}
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		saved, err := svc.SaveRecord(ctx, rec)
		if err != nil {
			zlog.Error().Err(err).Str("id", rec.ID).Msg("save memory failed")
			status, msg := statusFor(err)
			writeJSONError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func getMemoryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		rec, err := svc.GetRecord(ctx, id)
		if err != nil {
			status, msg := statusFor(err)
			if status >= 500 {
				zlog.Error().Err(err).Str("id", id).Msg("get memory failed")
			}
			writeJSONError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func searchMemoryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if strings.TrimSpace(q) == "" {
			writeJSONError(w, http.StatusBadRequest, "q is required")
			return
		}
		limit, ok := pageLimit(r)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		ctx, cancel := handlerContext(r.Context(), 0)
		defer cancel()
		recs, err := svc.SearchRecords(ctx, q, limit)
		if err != nil {
			zlog.Error().Err(err).Msg("search memory failed")
			status, msg := statusFor(err)
			writeJSONError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}
