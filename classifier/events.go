// Package classifier pairs inbox arrivals with their replies and computes
// per-conversation response times over business hours.
package classifier

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Event types as they appear in the raw export.
const (
	TypeInbox     = "Inbox"
	TypeReplied   = "Replied"
	TypeCompleted = "Completed"
)

// Event is one row from the raw conversation export.
type Event struct {
	ConversationID string
	Type           string
	Timestamp      time.Time
	Subject        string
	Participants   string
	MessageID      string
}

func (e Event) dedupKey() string {
	return fmt.Sprintf("%s|%d|%s|%s", e.ConversationID, e.Timestamp.UnixNano(), e.Type, e.MessageID)
}

// Dedupe drops exact repeats of the same event, keeping the first
// occurrence, and returns the survivors in chronological order.
func Dedupe(events []Event) []Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		key := ev.dedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// GroupByConversation buckets events by conversation id. Events without an
// id are dropped. Each bucket keeps chronological order.
func GroupByConversation(events []Event) map[string][]Event {
	groups := make(map[string][]Event)
	for _, ev := range events {
		id := strings.TrimSpace(ev.ConversationID)
		if id == "" {
			continue
		}
		groups[id] = append(groups[id], ev)
	}
	for id := range groups {
		evs := groups[id]
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		})
		groups[id] = evs
	}
	return groups
}
