/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Seednode/senryu/room"
	"github.com/Seednode/senryu/senryu"
)

var ErrRateLimited = &senryu.Error{Code: "rate_limited", Message: "too many messages, slow down"}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// roomLogger hands logf to the room package.
type roomLogger struct {
	cfg *Config
}

func (l roomLogger) Printf(format string, v ...any) {
	logf(l.cfg, format, v...)
}

// httpStatus maps a command error onto a response code.
func httpStatus(err error) int {
	var e *senryu.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e {
	case senryu.ErrRoomNotFound, senryu.ErrPlayerNotFound, room.ErrCodeNotFound:
		return http.StatusNotFound
	case senryu.ErrHostOnly, senryu.ErrNotYourTurn, senryu.ErrSelfScore, senryu.ErrRankingNotAllowed:
		return http.StatusForbidden
	case senryu.ErrInvalidState, senryu.ErrRoomFull, senryu.ErrNameTaken, senryu.ErrRoomExists,
		senryu.ErrAlreadyStarted, senryu.ErrPresentationNotStarted, senryu.ErrAlreadyPublished,
		senryu.ErrNotEnoughPlayers, senryu.ErrRedrawLimitExceeded, room.ErrCodeTaken:
		return http.StatusConflict
	case room.ErrRoomUnavailable, room.ErrLeaderboardUnavailable:
		return http.StatusServiceUnavailable
	case ErrRateLimited:
		return http.StatusTooManyRequests
	}

	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

// writeError reports err as {"error": {"code", "message"}}. Errors that are
// not *senryu.Error are logged and reported without their details.
func writeError(cfg *Config, w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		logf(cfg, "ERROR: %s %s from %s: %v", r.Method, r.URL.Path, realIP(r), err)
	}

	_ = writeJSON(w, status, struct {
		Error any `json:"error"`
	}{
		Error: senryu.ErrorEvent(err).Payload,
	})
}
