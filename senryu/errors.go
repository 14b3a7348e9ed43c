/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

// Error is a rejected command. Code is stable and meant for clients to
// switch on; Message is shown to players.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidPayload         = &Error{"invalid_payload", "malformed message"}
	ErrUnknownCommand         = &Error{"unknown_command", "unknown message type"}
	ErrHostOnly               = &Error{"host_only", "only the host can do that"}
	ErrNotYourTurn            = &Error{"not_your_turn", "not your turn to redraw"}
	ErrInvalidState           = &Error{"invalid_state", "that is not allowed right now"}
	ErrRoomFull               = &Error{"room_full", "the room is full"}
	ErrNameTaken              = &Error{"name_taken", "that name is already taken in this room"}
	ErrInvalidName            = &Error{"invalid_name", "please enter a name"}
	ErrNotEnoughPlayers       = &Error{"not_enough_players", "need at least 2 players"}
	ErrRedrawLimitExceeded    = &Error{"redraw_limit_exceeded", "no redraws left for that slot"}
	ErrInvalidSlot            = &Error{"invalid_slot", "unknown card slot"}
	ErrAlreadyStarted         = &Error{"already_started", "the presentation has already started"}
	ErrPresentationNotStarted = &Error{"presentation_not_started", "the presentation has not started yet"}
	ErrInvalidScore           = &Error{"invalid_score", "scores must be between 1 and 5"}
	ErrSelfScore              = &Error{"self_score", "you cannot score your own senryu"}
	ErrInvalidTarget          = &Error{"invalid_target", "that player is not presenting"}
	ErrInvalidConfig          = &Error{"invalid_config", "invalid room settings"}
	ErrRoomExists             = &Error{"room_exists", "the room already exists"}
	ErrRoomNotFound           = &Error{"room_not_found", "room not found"}
	ErrPlayerNotFound         = &Error{"player_not_found", "player not found"}
	ErrRankingNotAllowed      = &Error{"ranking_not_allowed", "ranking is disabled for this player"}
	ErrAlreadyPublished       = &Error{"already_published", "already published to the leaderboard"}
	ErrEmptyPool              = &Error{"empty_pool", "no cards available"}
)
