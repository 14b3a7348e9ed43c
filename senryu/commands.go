/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"encoding/json"
)

// CommandType is the wire name of a client command.
type CommandType string

const (
	CmdCreate            CommandType = "create"
	CmdJoin              CommandType = "join"
	CmdReconnect         CommandType = "reconnect"
	CmdStartGame         CommandType = "start_game"
	CmdRedrawCard        CommandType = "redraw_card"
	CmdStartPresentation CommandType = "start_presentation"
	CmdEndPresentation   CommandType = "end_presentation"
	CmdSubmitScore       CommandType = "submit_score"
	CmdNextPresenter     CommandType = "next_presenter"
	CmdPublishRanking    CommandType = "publish_ranking"
	CmdPing              CommandType = "ping"
)

// Command is implemented only by the command types in this file.
type Command interface {
	Type() CommandType
	command()
}

type CreateRoom struct {
	RoomID            string            `json:"-"`
	Code              string            `json:"roomCode"`
	HostName          string            `json:"hostName"`
	RankingPreference RankingPreference `json:"rankingPreference"`
}

type JoinRoom struct {
	PlayerName        string            `json:"playerName"`
	RankingPreference RankingPreference `json:"rankingPreference"`
}

type Reconnect struct {
	PlayerID string `json:"playerId"`
}

// ConfigOverrides are the settings a host may change when starting.
// Nil fields keep their current value.
type ConfigOverrides struct {
	PresentationTimeLimitSec *int        `json:"presentationTimeLimitSec,omitempty"`
	PreparationTimeLimitSec  *int        `json:"preparationTimeLimitSec,omitempty"`
	ScoringTimeLimitSec      *int        `json:"scoringTimeLimitSec,omitempty"`
	NumberOfSets             *int        `json:"numberOfSets,omitempty"`
	RedrawLimits             *SlotCounts `json:"redrawLimits,omitempty"`
}

type StartGame struct {
	Config *ConfigOverrides `json:"config,omitempty"`
}

type RedrawCard struct {
	Slot Slot `json:"slot"`
}

type StartPresentation struct{}

type EndPresentation struct{}

type SubmitScore struct {
	TargetPlayerID string         `json:"targetPlayerId"`
	Scores         map[string]int `json:"scores"`
}

type NextPresenter struct{}

type PublishRanking struct{}

type Ping struct{}

func (*CreateRoom) Type() CommandType        { return CmdCreate }
func (*JoinRoom) Type() CommandType          { return CmdJoin }
func (*Reconnect) Type() CommandType         { return CmdReconnect }
func (*StartGame) Type() CommandType         { return CmdStartGame }
func (*RedrawCard) Type() CommandType        { return CmdRedrawCard }
func (*StartPresentation) Type() CommandType { return CmdStartPresentation }
func (*EndPresentation) Type() CommandType   { return CmdEndPresentation }
func (*SubmitScore) Type() CommandType       { return CmdSubmitScore }
func (*NextPresenter) Type() CommandType     { return CmdNextPresenter }
func (*PublishRanking) Type() CommandType    { return CmdPublishRanking }
func (*Ping) Type() CommandType              { return CmdPing }

func (*CreateRoom) command()        {}
func (*JoinRoom) command()          {}
func (*Reconnect) command()         {}
func (*StartGame) command()         {}
func (*RedrawCard) command()        {}
func (*StartPresentation) command() {}
func (*EndPresentation) command()   {}
func (*SubmitScore) command()       {}
func (*NextPresenter) command()     {}
func (*PublishRanking) command()    {}
func (*Ping) command()              {}

// Message is the envelope every WebSocket frame is wrapped in.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command decodes the payload into the command named by Type.
func (m *Message) Command() (Command, error) {
	var cmd Command
	switch CommandType(m.Type) {
	case CmdCreate:
		cmd = &CreateRoom{}
	case CmdJoin:
		cmd = &JoinRoom{}
	case CmdReconnect:
		cmd = &Reconnect{}
	case CmdStartGame:
		cmd = &StartGame{}
	case CmdRedrawCard:
		cmd = &RedrawCard{}
	case CmdStartPresentation:
		cmd = &StartPresentation{}
	case CmdEndPresentation:
		cmd = &EndPresentation{}
	case CmdSubmitScore:
		cmd = &SubmitScore{}
	case CmdNextPresenter:
		cmd = &NextPresenter{}
	case CmdPublishRanking:
		cmd = &PublishRanking{}
	case CmdPing:
		cmd = &Ping{}
	default:
		return nil, ErrUnknownCommand
	}

	if len(m.Payload) == 0 || string(m.Payload) == "null" {
		return cmd, nil
	}
	if err := json.Unmarshal(m.Payload, cmd); err != nil {
		return nil, ErrInvalidPayload
	}

	return cmd, nil
}

// ParseMessage decodes a raw frame into a command.
func ParseMessage(data []byte) (Command, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ErrInvalidPayload
	}
	if m.Type == "" {
		return nil, ErrInvalidPayload
	}
	return m.Command()
}
