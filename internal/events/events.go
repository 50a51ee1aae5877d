// Package events publishes matchmaking notifications for the messaging side.
//
// Events are emitted after the storage transaction commits and delivery is
// best effort: a failed publish is logged and never undoes a like.
package events

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = "1.0"

type Type string

const (
	// LikeReceived tells the target someone liked them. It carries no liker id.
	LikeReceived Type = "like.received"
	// MatchCreated is emitted once per pair, to both users.
	MatchCreated Type = "match.created"
	// SuperLikeReceived reveals the liker to the target.
	SuperLikeReceived Type = "superlike.received"
)

// Event is the envelope written to every sink.
type Event struct {
	Type      Type      `json:"event_type"`
	TargetID  uint64    `json:"target_id,omitempty"`
	LikerID   uint64    `json:"liker_id,omitempty"`
	UserIDs   []uint64  `json:"user_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Key is the partition key: the user who will be notified first.
func (e Event) Key() string {
	if len(e.UserIDs) > 0 {
		return strconv.FormatUint(e.UserIDs[0], 10)
	}
	return strconv.FormatUint(e.TargetID, 10)
}

func NewLikeReceived(targetID uint64) Event {
	return Event{Type: LikeReceived, TargetID: targetID, Timestamp: time.Now().UTC()}
}

func NewMatchCreated(a, b uint64) Event {
	if b < a {
		a, b = b, a
	}
	return Event{Type: MatchCreated, UserIDs: []uint64{a, b}, Timestamp: time.Now().UTC()}
}

func NewSuperLikeReceived(likerID, targetID uint64) Event {
	return Event{Type: SuperLikeReceived, LikerID: likerID, TargetID: targetID, Timestamp: time.Now().UTC()}
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
func (Nop) Close() error                            { return nil }

// ErrUnknownSink is returned by New for an unsupported sink name.
var ErrUnknownSink = errors.New("unknown events sink")
