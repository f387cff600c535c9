package model

import (
	"fmt"
	"time"
)

// Entry is one line of a ps listing.
type Entry struct {
	Status byte   `json:"status" yaml:"status"`
	Pid    Pid    `json:"pid" yaml:"pid"`
	Name   string `json:"name" yaml:"name"`
	Parent Pid    `json:"parent" yaml:"parent"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%c %6d %s", e.Status, e.Pid, e.Name)
}

// Snapshot is a persisted ps listing.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Tick      uint64    `json:"tick" yaml:"tick"`
	Entries   []Entry   `json:"entries" yaml:"entries"`
}
