// Package domain contains core concepts of the direct-message system.
// This file defines Message rows and the delivery status state machine.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"time"

	"dm-lab/errors"

	"github.com/google/uuid"
)

// Status is the delivery state of a message. The zero value is StatusSent.
type Status uint8

const (
	StatusSent Status = iota
	StatusDelivered
	StatusRead
)

// transitions is the closed edge set of the state machine.
// SENT may advance to DELIVERED or jump straight to READ (delivery skipped),
// DELIVERED may only advance to READ, READ is terminal.
var transitions = map[Status][]Status{
	StatusSent:      {StatusDelivered, StatusRead},
	StatusDelivered: {StatusRead},
	StatusRead:      nil,
}

// CanAdvance reports whether moving from s to next is a legal edge.
func (s Status) CanAdvance(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "SENT"
	case StatusDelivered:
		return "DELIVERED"
	case StatusRead:
		return "READ"
	}
	return "UNKNOWN"
}

// ParseStatus converts the wire representation back into a closed Status.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case "SENT":
		return StatusSent, nil
	case "DELIVERED":
		return StatusDelivered, nil
	case "READ":
		return StatusRead, nil
	}
	return StatusSent, errors.ErrUnknownStatus
}

// Message is a single direct message between two users.
// SentAt is set once at creation. DeliveredAt and ReadAt stay nil until the
// matching transition is applied; once set they are never overwritten.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	ReceiverID  string
	Content     string
	Lang        string
	Status      Status
	SentAt      time.Time
	DeliveredAt *time.Time
	ReadAt      *time.Time
	IsDeleted   bool
}

// Outcome is the tri-state result of an idempotent transition request.
// Callers can tell "target vanished" apart from "nothing left to do".
type Outcome uint8

const (
	OutcomeApplied Outcome = iota
	OutcomeNotFound
	OutcomeAlreadySatisfied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeNotFound:
		return "NOT_FOUND"
	case OutcomeAlreadySatisfied:
		return "ALREADY_SATISFIED"
	}
	return "UNKNOWN"
}
