package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/storage"
	"github.com/soltwin/soltwin/pkg/types"
)

const blackoutDateFormat = "2006-01-02"

// blackoutPayload is the create/update body for a blackout schedule. Since
// there is at most one schedule per day, POST upserts by date.
type blackoutPayload struct {
	Date         string                   `json:"date"`
	Intervals    []types.BlackoutInterval `json:"intervals"`
	Province     *string                  `json:"province"`
	Municipality *string                  `json:"municipality"`
	Notes        *string                  `json:"notes"`
}

func (p blackoutPayload) applyMetadata(schedule *types.BlackoutSchedule) {
	if p.Province != nil {
		schedule.Province = *p.Province
	}
	if p.Municipality != nil {
		schedule.Municipality = *p.Municipality
	}
	if p.Notes != nil {
		schedule.Notes = *p.Notes
	}
}

func (s *Server) handleListBlackouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(blackoutDateFormat, v)
		if err != nil {
			writeJSONError(w, "invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = &parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(blackoutDateFormat, v)
		if err != nil {
			writeJSONError(w, "invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		to = &parsed
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	schedules, err := s.storage.ListBlackouts(ctx, from, to, limit)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list blackouts", slog.Any("error", err))
		writeJSONError(w, "failed to list blackouts", http.StatusInternalServerError)
		return
	}
	if schedules == nil {
		schedules = []types.BlackoutSchedule{}
	}
	writeJSON(w, schedules)
}

func (s *Server) handleGetBlackout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schedule, err := s.storage.GetBlackout(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Horario de apagón no encontrado.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get blackout", slog.Any("error", err))
		writeJSONError(w, "failed to get blackout", http.StatusInternalServerError)
		return
	}
	writeJSON(w, schedule)
}

func (s *Server) handleUpsertBlackout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload blackoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Date == "" {
		writeJSONError(w, requiredFieldError("date"), http.StatusBadRequest)
		return
	}
	date, err := time.Parse(blackoutDateFormat, payload.Date)
	if err != nil {
		writeJSONError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	intervals, err := types.NormalizeBlackoutIntervals(date, payload.Intervals)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	schedule := types.BlackoutSchedule{
		Date:      date,
		Intervals: intervals,
	}
	payload.applyMetadata(&schedule)

	saved, err := s.storage.UpsertBlackoutByDate(ctx, schedule)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to upsert blackout", slog.Any("error", err))
		writeJSONError(w, "failed to save blackout", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "blackout schedule saved",
		slog.String("id", saved.ID), slog.Int("intervals", len(saved.Intervals)))
	writeJSONStatus(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateBlackout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload blackoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	schedule, err := s.storage.GetBlackout(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Horario de apagón no encontrado.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get blackout", slog.Any("error", err))
		writeJSONError(w, "failed to get blackout", http.StatusInternalServerError)
		return
	}

	// the schedule stays keyed to its day, only intervals and metadata move
	if len(payload.Intervals) > 0 {
		intervals, err := types.NormalizeBlackoutIntervals(schedule.Date, payload.Intervals)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		schedule.Intervals = intervals
	}
	payload.applyMetadata(&schedule)

	if err := s.storage.UpdateBlackout(ctx, schedule); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to update blackout", slog.Any("error", err))
		writeJSONError(w, "failed to update blackout", http.StatusInternalServerError)
		return
	}
	writeJSON(w, schedule)
}

func (s *Server) handleDeleteBlackout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.storage.DeleteBlackout(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Horario de apagón no encontrado.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to delete blackout", slog.Any("error", err))
		writeJSONError(w, "failed to delete blackout", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
