// Package events publishes run milestones (run start, room entry, reward,
// retry, completion) to MQTT and the log.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a run milestone. It doubles as the MQTT topic suffix.
type Type string

const (
	RunStarted   Type = "run_started"
	RoomEntered  Type = "room_entered"
	Reward       Type = "reward"
	Retry        Type = "retry"
	RunCompleted Type = "run_completed"
)

// Event is one milestone.
type Event struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	RunID   string    `json:"run_id"`
	Hero    string    `json:"hero"`
	Dungeon string    `json:"dungeon,omitempty"`
	Room    int       `json:"room"`
	Time    time.Time `json:"time"`
}

// New stamps an event with a fresh id.
func New(t Type, runID, hero string, room int, at time.Time) Event {
	return Event{
		ID:    uuid.NewString(),
		Type:  t,
		RunID: runID,
		Hero:  hero,
		Room:  room,
		Time:  at,
	}
}

// JSON encodes e.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}
