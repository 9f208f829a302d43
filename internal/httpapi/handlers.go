package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

// RoomReader is the read-only side of the hub used by these handlers.
type RoomReader interface {
	RoomSummary(ctx context.Context, roomID string) (wire.RoomSummary, bool, error)
	Rooms(ctx context.Context) ([]wire.RoomSummary, error)
	Stats(ctx context.Context) (wire.ServiceStats, error)
}

const readTimeout = 2 * time.Second

type Health struct {
	Status    string    `json:"status"`
	Rooms     int       `json:"rooms"`
	Players   int       `json:"players"`
	Timestamp time.Time `json:"timestamp"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func HealthHandler(rr RoomReader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
		defer cancel()

		st, err := rr.Stats(ctx)
		if err != nil {
			log.Warn("health", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, Health{
			Status:    "ok",
			Rooms:     st.RoomCount,
			Players:   st.ActiveSessionCount,
			Timestamp: st.Timestamp,
		})
	}
}

func ListRooms(rr RoomReader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
		defer cancel()

		rooms, err := rr.Rooms(ctx)
		if err != nil {
			log.Warn("list rooms", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func GetRoom(rr RoomReader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
		defer cancel()

		s, ok, err := rr.RoomSummary(ctx, chi.URLParam(r, "roomId"))
		switch {
		case err != nil:
			log.Warn("get room", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
		case !ok:
			writeJSON(w, http.StatusNotFound, errorBody{Error: "房间不存在"})
		default:
			writeJSON(w, http.StatusOK, s)
		}
	}
}
