package suggestions

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
)

// Status is the review state of a suggestion. Any status may follow any other.
type Status uint8

const (
	StatusOpen Status = iota
	StatusConsidered
	StatusApproved
	StatusImplemented
	StatusDenied
	StatusInvalid
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusOpen,
	StatusConsidered,
	StatusApproved,
	StatusImplemented,
	StatusDenied,
	StatusInvalid,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s <= StatusInvalid
}

// Vote is a voter's current position on a suggestion.
type Vote int8

const (
	VoteUp   Vote = 1
	VoteDown Vote = -1
)

func (v Vote) String() string {
	switch v {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "none"
	}
}

// Desire is what a voter asks for when interacting with a suggestion.
type Desire uint8

const (
	DesireUp Desire = iota
	DesireDown
	DesireRetract
)

func (d Desire) String() string {
	switch d {
	case DesireUp:
		return "up"
	case DesireDown:
		return "down"
	case DesireRetract:
		return "retract"
	default:
		return "unknown"
	}
}

// Ledger maps voter id to that voter's current vote. Absence means no vote.
type Ledger map[string]Vote

// Value stores the ledger as a JSON object.
func (l Ledger) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]Vote(l))
	if err != nil {
		return nil, errors.Wrap(err, "marshal ledger")
	}
	return string(b), nil
}

// Scan reads a ledger written by Value.
func (l *Ledger) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = Ledger{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.Errorf("ledger: unsupported column type %T", src)
	}
	out := Ledger{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, (*map[string]Vote)(&out)); err != nil {
			return errors.Wrap(err, "unmarshal ledger")
		}
	}
	*l = out
	return nil
}

// Tally counts the Up and Down entries of the ledger.
func (l Ledger) Tally() (up, down int) {
	for _, v := range l {
		switch v {
		case VoteUp:
			up++
		case VoteDown:
			down++
		}
	}
	return up, down
}

func (l Ledger) clone() Ledger {
	out := make(Ledger, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Suggestion is the persisted record behind a rendered suggestion message.
type Suggestion struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	MessageID    *string `gorm:"size:64;uniqueIndex"`
	Title        string  `gorm:"size:400;not null"`
	Description  string  `gorm:"type:text;not null"`
	AuthorID     string  `gorm:"size:64;not null;index"`
	Status       Status  `gorm:"not null;default:0;index"`
	StatusReason string  `gorm:"size:4096;not null;default:''"`
	VotesFor     int     `gorm:"not null;default:0"`
	VotesAgainst int     `gorm:"not null;default:0"`
	VoteLedger   Ledger  `gorm:"type:longtext;not null"`
	Version      uint64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessageRef returns the display message id, or "" before it has been attached.
func (s *Suggestion) MessageRef() string {
	if s == nil || s.MessageID == nil {
		return ""
	}
	return *s.MessageID
}

// Tally returns the materialized vote counts.
func (s *Suggestion) Tally() Tally {
	return Tally{For: s.VotesFor, Against: s.VotesAgainst}
}

// Tally is the materialized vote count of a suggestion.
type Tally struct {
	For     int
	Against int
}
