/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package room runs one actor per room. Each actor owns its room state and
// connected sessions, applies commands one at a time, persists after every
// change and fans out the resulting events.
package room

import (
	"errors"

	"github.com/Seednode/senryu/senryu"
)

// Conn is a client connection as seen by an actor. Send must not block for
// long; a failed Send evicts the connection.
type Conn interface {
	Send(data []byte) error
	Close()
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

var (
	ErrActorStopped = errors.New("room actor stopped")
	ErrClosed       = errors.New("room manager closed")
)

// Errors reported to clients on top of the game's own.
var (
	ErrCodeTaken              = &senryu.Error{Code: "code_taken", Message: "that room code is already in use"}
	ErrCodeNotFound           = &senryu.Error{Code: "code_not_found", Message: "no room with that code"}
	ErrRoomUnavailable        = &senryu.Error{Code: "room_unavailable", Message: "the room could not be loaded, try again"}
	ErrLeaderboardUnavailable = &senryu.Error{Code: "leaderboard_unavailable", Message: "the leaderboard is unavailable, try again"}
)

// Result is what a caller gets back from an accepted command.
type Result struct {
	// Room is a copy of the state after the command; nil for a ping to a
	// room that was never created.
	Room *senryu.Room

	// PlayerID is set by create, join and reconnect.
	PlayerID string
}
