/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"time"
)

// State is the phase a room is in.
type State string

const (
	StateWaiting      State = "waiting"
	StateDistributing State = "distributing"
	StatePresenting   State = "presenting"
	StateScoring      State = "scoring"
	StateCompleted    State = "completed"
)

// Slot is one of the three phrase positions of a senryu.
type Slot string

const (
	SlotUpper  Slot = "upper"
	SlotMiddle Slot = "middle"
	SlotLower  Slot = "lower"
)

// Slots lists every slot in reading order.
var Slots = []Slot{SlotUpper, SlotMiddle, SlotLower}

func (s Slot) Valid() bool {
	switch s {
	case SlotUpper, SlotMiddle, SlotLower:
		return true
	}
	return false
}

// Card is a single phrase drawn from a pool. Cards are never mutated.
type Card struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Slot     Slot   `json:"slot"`
}

// Senryu is the hand dealt to a player, one card per slot.
type Senryu struct {
	Upper  Card `json:"upper"`
	Middle Card `json:"middle"`
	Lower  Card `json:"lower"`
}

func (s *Senryu) Card(slot Slot) Card {
	switch slot {
	case SlotUpper:
		return s.Upper
	case SlotMiddle:
		return s.Middle
	default:
		return s.Lower
	}
}

func (s *Senryu) setCard(slot Slot, c Card) {
	switch slot {
	case SlotUpper:
		s.Upper = c
	case SlotMiddle:
		s.Middle = c
	case SlotLower:
		s.Lower = c
	}
}

// SlotCounts holds one integer per slot. It is used both for redraw limits
// and for the redraws a player has already used.
type SlotCounts struct {
	Upper  int `json:"upper"`
	Middle int `json:"middle"`
	Lower  int `json:"lower"`
}

func (c SlotCounts) Get(slot Slot) int {
	switch slot {
	case SlotUpper:
		return c.Upper
	case SlotMiddle:
		return c.Middle
	default:
		return c.Lower
	}
}

func (c *SlotCounts) increment(slot Slot) {
	switch slot {
	case SlotUpper:
		c.Upper++
	case SlotMiddle:
		c.Middle++
	case SlotLower:
		c.Lower++
	}
}

// RankingPreference is consumed by the leaderboard, not by the game itself.
type RankingPreference struct {
	AllowRanking     bool `json:"allowRanking"`
	AnonymousRanking bool `json:"anonymousRanking"`
}

type Player struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	IsHost            bool              `json:"isHost"`
	Senryu            *Senryu           `json:"senryu,omitempty"`
	TotalScore        int               `json:"totalScore"`
	RankingPreference RankingPreference `json:"rankingPreference"`
	RankingPublished  bool              `json:"rankingPublished,omitempty"`
}

// RoomConfig holds the tunables of a room. Time limits are advisory and
// only relayed to clients.
type RoomConfig struct {
	PresentationTimeLimitSec int `json:"presentationTimeLimitSec"`
	PreparationTimeLimitSec  int `json:"preparationTimeLimitSec"`
	ScoringTimeLimitSec      int `json:"scoringTimeLimitSec"`

	// NumberOfSets is how many times every player presents. Each set
	// redeals and starts again from the first player, so
	// Room.CurrentPresenterIndex is non-decreasing within a set only.
	// Across sets the pair (CurrentSet, CurrentPresenterIndex) is.
	NumberOfSets int        `json:"numberOfSets"`
	RedrawLimits SlotCounts `json:"redrawLimits"`
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		PresentationTimeLimitSec: 60,
		PreparationTimeLimitSec:  30,
		ScoringTimeLimitSec:      30,
		NumberOfSets:             1,
		RedrawLimits:             SlotCounts{Upper: 1, Middle: 1, Lower: 1},
	}
}

// ScoreSubmission is one scorer's rating of one presenter. Never modified
// after it is recorded, only replaced.
type ScoreSubmission struct {
	ScorerPlayerID string         `json:"scorerPlayerId"`
	TargetPlayerID string         `json:"targetPlayerId"`
	Scores         map[string]int `json:"scores"`
	Timestamp      time.Time      `json:"timestamp"`
}

type Ranking struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
}

type Results struct {
	Rankings []Ranking `json:"rankings"`
	Winner   Ranking   `json:"winner"`
}

// Room is the aggregate root of one game session.
type Room struct {
	ID                    string                             `json:"id"`
	Code                  string                             `json:"code"`
	HostPlayerID          string                             `json:"hostPlayerId"`
	Players               []*Player                          `json:"players"`
	State                 State                              `json:"state"`
	CurrentPresenterIndex int                                `json:"currentPresenterIndex"`
	PresentationStarted   bool                               `json:"presentationStarted"`
	CurrentSet            int                                `json:"currentSet"`
	TotalSets             int                                `json:"totalSets"`
	Config                RoomConfig                         `json:"config"`
	SubmittedScores       map[int]map[string]ScoreSubmission `json:"submittedScores"`
	RedrawsUsed           map[string]SlotCounts              `json:"redrawsUsed"`
	Results               *Results                           `json:"results,omitempty"`
	CreatedAt             time.Time                          `json:"createdAt"`
	StartedAt             *time.Time                         `json:"startedAt,omitempty"`
	EndedAt               *time.Time                         `json:"endedAt,omitempty"`
}

// Player returns the player with the given id, or nil.
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Presenter returns the current presenter, or nil outside of play.
func (r *Room) Presenter() *Player {
	if r.CurrentPresenterIndex < 0 || r.CurrentPresenterIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPresenterIndex]
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r

	c.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		if p.Senryu != nil {
			s := *p.Senryu
			cp.Senryu = &s
		}
		c.Players[i] = &cp
	}

	c.SubmittedScores = make(map[int]map[string]ScoreSubmission, len(r.SubmittedScores))
	for idx, subs := range r.SubmittedScores {
		m := make(map[string]ScoreSubmission, len(subs))
		for scorer, sub := range subs {
			scores := make(map[string]int, len(sub.Scores))
			for k, v := range sub.Scores {
				scores[k] = v
			}
			sub.Scores = scores
			m[scorer] = sub
		}
		c.SubmittedScores[idx] = m
	}

	c.RedrawsUsed = make(map[string]SlotCounts, len(r.RedrawsUsed))
	for id, counts := range r.RedrawsUsed {
		c.RedrawsUsed[id] = counts
	}

	if r.Results != nil {
		res := *r.Results
		res.Rankings = append([]Ranking(nil), r.Results.Rankings...)
		c.Results = &res
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		c.EndedAt = &t
	}

	return &c
}

// RankingEntry is what a player hands to the leaderboard when they publish.
type RankingEntry struct {
	ID               string    `json:"id"`
	RoomID           string    `json:"roomId"`
	PlayerName       string    `json:"playerName"`
	Senryu           Senryu    `json:"senryu"`
	Score            int       `json:"score"`
	AnonymousRanking bool      `json:"anonymousRanking"`
	PublishedAt      time.Time `json:"publishedAt"`
}
