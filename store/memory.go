/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Seednode/senryu/senryu"
)

// Memory implements Repository in process. Records never expire and do not
// survive a restart. Rooms are kept as JSON so readers never share memory
// with the actor that saved them.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string][]byte
	codes map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		rooms: make(map[string][]byte),
		codes: make(map[string]string),
	}
}

func (m *Memory) SaveRoom(ctx context.Context, input *SaveRoomInput) error {
	if input == nil || input.Room == nil {
		return errors.New("input and room cannot be nil")
	}

	data, err := json.Marshal(input.Room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	m.mu.Lock()
	m.rooms[input.Room.ID] = data
	m.mu.Unlock()

	return nil
}

func (m *Memory) GetRoom(ctx context.Context, input *GetRoomInput) (*senryu.Room, error) {
	if input == nil || input.RoomID == "" {
		return nil, errors.New("input and room ID cannot be empty")
	}

	m.mu.RLock()
	data, ok := m.rooms[input.RoomID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrRoomNotFound
	}

	var room senryu.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (m *Memory) ReserveCode(ctx context.Context, input *ReserveCodeInput) error {
	if input == nil || input.Code == "" || input.RoomID == "" {
		return errors.New("input, code and room ID cannot be empty")
	}

	code := NormalizeCode(input.Code)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.codes[code]; taken {
		return ErrCodeTaken
	}
	m.codes[code] = input.RoomID

	return nil
}

func (m *Memory) GetRoomIDByCode(ctx context.Context, input *GetRoomIDByCodeInput) (string, error) {
	if input == nil || input.Code == "" {
		return "", errors.New("input and code cannot be empty")
	}

	m.mu.RLock()
	id, ok := m.codes[NormalizeCode(input.Code)]
	m.mu.RUnlock()

	if !ok {
		return "", ErrCodeNotFound
	}

	return id, nil
}
