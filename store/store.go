/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store persists rooms and the public leaderboard.
package store

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/Seednode/senryu/store Repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Seednode/senryu/senryu"
)

// DefaultTTL is how long an untouched room is kept.
const DefaultTTL = 7 * 24 * time.Hour

const (
	roomKeyPrefix         = "senryu:room:"
	codeKeyPrefix         = "senryu:code:"
	leaderboardKey        = "senryu:leaderboard"
	leaderboardEntriesKey = "senryu:leaderboard:entries"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrCodeNotFound = errors.New("room code not found")
	ErrCodeTaken    = errors.New("room code already in use")
	ErrNilConfig    = errors.New("config cannot be nil")
	ErrNilClient    = errors.New("redis client cannot be nil")
)

// Repository persists whole rooms. Every save overwrites the previous
// record, so saves are idempotent.
type Repository interface {
	// SaveRoom writes the full room and refreshes its expiry
	SaveRoom(ctx context.Context, input *SaveRoomInput) error

	// GetRoom returns ErrRoomNotFound for an id that was never saved or has expired
	GetRoom(ctx context.Context, input *GetRoomInput) (*senryu.Room, error)

	// ReserveCode claims a join code for a room, or returns ErrCodeTaken
	ReserveCode(ctx context.Context, input *ReserveCodeInput) error

	// GetRoomIDByCode resolves a join code
	GetRoomIDByCode(ctx context.Context, input *GetRoomIDByCodeInput) (string, error)
}

// Leaderboard keeps the senryu players chose to publish.
type Leaderboard interface {
	Publish(ctx context.Context, input *PublishInput) error
	List(ctx context.Context, input *ListInput) ([]*senryu.RankingEntry, error)
}

type SaveRoomInput struct {
	Room *senryu.Room
}

type GetRoomInput struct {
	RoomID string
}

type ReserveCodeInput struct {
	Code   string
	RoomID string
}

type GetRoomIDByCodeInput struct {
	Code string
}

type PublishInput struct {
	Entry *senryu.RankingEntry
}

type ListInput struct {
	// Limit caps the number of entries; zero means DefaultListLimit
	Limit int
}

// DefaultListLimit is used when ListInput.Limit is unset.
const DefaultListLimit = 50

func (i *ListInput) limit() int {
	if i == nil || i.Limit <= 0 {
		return DefaultListLimit
	}
	return i.Limit
}

// NormalizeCode upper-cases a join code so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func roomKey(id string) string {
	return roomKeyPrefix + id
}

func codeKey(code string) string {
	return codeKeyPrefix + NormalizeCode(code)
}
