/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed cards.json
var defaultCards []byte

// Pools holds the card sets drawn from, one per slot.
type Pools struct {
	Upper  []Card `json:"upper"`
	Middle []Card `json:"middle"`
	Lower  []Card `json:"lower"`
}

// PoolProvider supplies the phrase content. The default is the embedded
// card set; an operator can point --cards at a replacement file.
type PoolProvider interface {
	Pools() *Pools
}

func (p *Pools) Pools() *Pools {
	return p
}

// For returns the pool for a slot.
func (p *Pools) For(slot Slot) []Card {
	switch slot {
	case SlotUpper:
		return p.Upper
	case SlotMiddle:
		return p.Middle
	case SlotLower:
		return p.Lower
	}
	return nil
}

// ParsePools decodes a JSON card file. Slots are taken from the section a
// card appears in, and every section must hold at least one card.
func ParsePools(data []byte) (*Pools, error) {
	var p Pools
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode card pools: %w", err)
	}

	for _, slot := range Slots {
		cards := p.For(slot)
		if len(cards) == 0 {
			return nil, fmt.Errorf("card pool %q is empty", slot)
		}

		seen := make(map[string]bool, len(cards))
		for i := range cards {
			if cards[i].ID == "" || cards[i].Text == "" {
				return nil, fmt.Errorf("card %d in pool %q is missing an id or text", i, slot)
			}
			if seen[cards[i].ID] {
				return nil, fmt.Errorf("duplicate card id %q in pool %q", cards[i].ID, slot)
			}
			seen[cards[i].ID] = true

			if cards[i].Slot != "" && cards[i].Slot != slot {
				return nil, fmt.Errorf("card %q is tagged %q but listed under %q", cards[i].ID, cards[i].Slot, slot)
			}
			cards[i].Slot = slot
		}
	}

	return &p, nil
}

// LoadPools reads a card file from disk.
func LoadPools(path string) (*Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePools(data)
}

// DefaultPools returns the embedded card set.
func DefaultPools() *Pools {
	p, err := ParsePools(defaultCards)
	if err != nil {
		panic("embedded card pools are invalid: " + err.Error())
	}
	return p
}
