package domain

import "time"

// PresenceStatus is a closed online/offline variant.
type PresenceStatus uint8

const (
	PresenceOffline PresenceStatus = iota
	PresenceOnline
)

func (p PresenceStatus) String() string {
	if p == PresenceOnline {
		return "ONLINE"
	}
	return "OFFLINE"
}

// Handle identifies one physical connection of a user. The ConnID part makes
// two successive connections of the same user distinguishable, which is what
// the stale-disconnect guard compares.
type Handle struct {
	UserID string
	ConnID string
}

// PresenceChange is emitted when a user flips between online and offline.
type PresenceChange struct {
	UserID string
	Status PresenceStatus
	At     time.Time
}
