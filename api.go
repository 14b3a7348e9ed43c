/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Seednode/senryu/room"
	"github.com/Seednode/senryu/senryu"
	"github.com/julienschmidt/httprouter"
)

const (
	maxBodySize     = 16 << 10
	maxLeaderboard  = 200
	anonymousPlayer = "Anonymous"
)

type createRoomResponse struct {
	RoomID   string       `json:"roomId"`
	Code     string       `json:"code"`
	PlayerID string       `json:"playerId"`
	Room     *senryu.Room `json:"room"`
}

type joinRoomResponse struct {
	PlayerID string       `json:"playerId"`
	Room     *senryu.Room `json:"room"`
}

type codeResponse struct {
	RoomID string `json:"roomId"`
}

type leaderboardResponse struct {
	Entries []*senryu.RankingEntry `json:"entries"`
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return senryu.ErrInvalidPayload
	}

	return nil
}

func serveCreateRoom(cfg *Config, manager *room.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		securityHeaders(cfg, w)
		w.Header().Set("Cache-Control", "no-store")

		var cmd senryu.CreateRoom
		if err := decodeBody(r, &cmd); err != nil {
			writeError(cfg, w, r, err)
			return
		}

		res, err := manager.CreateRoom(r.Context(), nil, &cmd)
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		err = writeJSON(w, http.StatusCreated, createRoomResponse{
			RoomID:   res.Room.ID,
			Code:     res.Room.Code,
			PlayerID: res.PlayerID,
			Room:     res.Room,
		})
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Created room %s (%s) for %s in %s",
			res.Room.ID,
			res.Room.Code,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveRoom(cfg *Config, manager *room.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)
		w.Header().Set("Cache-Control", "no-store")

		snap, err := manager.Snapshot(r.Context(), p.ByName("roomid"))
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		if err := writeJSON(w, http.StatusOK, snap); err != nil {
			errs <- err
		}
	}
}

func serveJoinRoom(cfg *Config, manager *room.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		securityHeaders(cfg, w)
		w.Header().Set("Cache-Control", "no-store")

		var cmd senryu.JoinRoom
		if err := decodeBody(r, &cmd); err != nil {
			writeError(cfg, w, r, err)
			return
		}

		roomID := p.ByName("roomid")

		res, err := manager.Dispatch(r.Context(), roomID, nil, &cmd)
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		err = writeJSON(w, http.StatusCreated, joinRoomResponse{
			PlayerID: res.PlayerID,
			Room:     res.Room,
		})
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Player %s joined room %s from %s in %s",
			res.PlayerID,
			roomID,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveCode(cfg *Config, manager *room.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)
		w.Header().Set("Cache-Control", "no-store")

		id, err := manager.RoomIDByCode(r.Context(), p.ByName("code"))
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		if err := writeJSON(w, http.StatusOK, codeResponse{RoomID: id}); err != nil {
			errs <- err
		}
	}
}

// serveLeaderboard lists published senryu. Entries published anonymously
// have their author's name replaced.
func serveLeaderboard(cfg *Config, manager *room.Manager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)
		w.Header().Set("Cache-Control", "no-store")

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(cfg, w, r, senryu.ErrInvalidPayload)
				return
			}
			limit = min(n, maxLeaderboard)
		}

		entries, err := manager.Leaderboard(r.Context(), limit)
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		for _, e := range entries {
			if e.AnonymousRanking {
				e.PlayerName = anonymousPlayer
			}
		}

		if entries == nil {
			entries = []*senryu.RankingEntry{}
		}

		if err := writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries}); err != nil {
			errs <- err
		}
	}
}
