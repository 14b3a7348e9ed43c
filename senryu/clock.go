/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"time"

	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type IDGenerator interface {
	NewID() string
}

// UUIDGenerator implements IDGenerator with random (v4) UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}
