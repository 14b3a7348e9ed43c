/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"encoding/json"
	"errors"
	"time"
)

// EventType is the wire name of a server notification.
type EventType string

const (
	EvtRoomState           EventType = "room_state"
	EvtPlayerJoined        EventType = "player_joined"
	EvtPlayerOnline        EventType = "player_online"
	EvtPlayerOffline       EventType = "player_offline"
	EvtGameStarted         EventType = "game_started"
	EvtCardRedrawn         EventType = "card_redrawn"
	EvtPresentationStarted EventType = "presentation_started"
	EvtPresentationEnded   EventType = "presentation_ended"
	EvtScoreSubmitted      EventType = "score_submitted"
	EvtRoundCompleted      EventType = "round_completed"
	EvtNextPresenter       EventType = "next_presenter"
	EvtSetStarted          EventType = "set_started"
	EvtGameCompleted       EventType = "game_completed"
	EvtRankingPublished    EventType = "ranking_published"
	EvtPong                EventType = "pong"
	EvtError               EventType = "error"
)

// Event is an outbound notification.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Marshal encodes the event once for fan-out.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type RoomStatePayload struct {
	PlayerID string `json:"playerId,omitempty"`
	Room     *Room  `json:"room"`
}

type PlayerJoinedPayload struct {
	Player *Player `json:"player"`
	Room   *Room   `json:"room"`
}

type PlayerPresencePayload struct {
	PlayerID string `json:"playerId"`
}

type CardRedrawnPayload struct {
	PlayerID  string `json:"playerId"`
	Slot      Slot   `json:"slot"`
	Card      Card   `json:"card"`
	Remaining int    `json:"remaining"`
}

type PresentationPayload struct {
	PresenterIndex int    `json:"presenterIndex"`
	PresenterID    string `json:"presenterId"`
	CurrentSet     int    `json:"currentSet"`
}

type ScoreSubmittedPayload struct {
	ScorerID       string `json:"scorerId"`
	PresenterID    string `json:"presenterId"`
	PresenterIndex int    `json:"presenterIndex"`
	Submitted      int    `json:"submitted"`
	Expected       int    `json:"expected"`
}

type RoundCompletedPayload struct {
	PresenterID    string `json:"presenterId"`
	PresenterIndex int    `json:"presenterIndex"`
	Score          int    `json:"score"`
	TotalScore     int    `json:"totalScore"`
}

type GameCompletedPayload struct {
	Results *Results `json:"results"`
}

type PongPayload struct {
	ServerTime int64 `json:"serverTime"`
}

func newErrorEvent(err *Error) Event {
	return Event{Type: EvtError, Payload: err}
}

// ErrorEvent wraps any error for a client. Errors that are not *Error are
// reported without their details.
func ErrorEvent(err error) Event {
	var e *Error
	if errors.As(err, &e) {
		return newErrorEvent(e)
	}
	return newErrorEvent(&Error{Code: "internal", Message: "something went wrong"})
}

func pongEvent(now time.Time) Event {
	return Event{Type: EvtPong, Payload: PongPayload{ServerTime: now.UnixNano()}}
}
