package classifier

import (
	"sort"
	"time"

	"email_sla/calendar"
)

// Resolution statuses for an inbox arrival.
const (
	StatusReplied   = "replied"
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// Record is one inbox arrival paired with whatever resolved it.
type Record struct {
	Inbox           Event
	Resolution      *Event
	Status          string
	ResponseMinutes *float64
}

// Classifier turns raw conversation events into resolution records.
type Classifier struct {
	cal *calendar.Calendar
}

// New returns a classifier using the given business calendar.
func New(cal *calendar.Calendar) *Classifier {
	return &Classifier{cal: cal}
}

// Classify dedupes the events, groups them by conversation and matches
// every inbox arrival against its resolution. Records come back ordered
// by inbox timestamp.
func (c *Classifier) Classify(events []Event) []Record {
	var records []Record
	for _, convo := range GroupByConversation(Dedupe(events)) {
		records = append(records, c.classifyConversation(convo)...)
	}
	sortRecords(records)
	return records
}

func (c *Classifier) classifyConversation(events []Event) []Record {
	var inboxes []Event
	var replies []Event
	var completions []Event
	for _, ev := range events {
		switch ev.Type {
		case TypeInbox:
			inboxes = append(inboxes, ev)
		case TypeReplied:
			replies = append(replies, ev)
		case TypeCompleted:
			completions = append(completions, ev)
		}
	}

	records := make([]Record, 0, len(inboxes))
	for _, inbox := range inboxes {
		rec := Record{Inbox: inbox, Status: StatusPending}
		if match := firstAfter(replies, inbox.Timestamp); match != nil {
			rec.Resolution = match
			rec.Status = StatusReplied
		} else if match := firstAfter(completions, inbox.Timestamp); match != nil {
			rec.Resolution = match
			rec.Status = StatusCompleted
		}
		if rec.Resolution != nil {
			rec.ResponseMinutes = c.cal.Minutes(inbox.Timestamp, rec.Resolution.Timestamp)
		}
		records = append(records, rec)
	}
	return records
}

// firstAfter returns the earliest event strictly after ts.
func firstAfter(events []Event, ts time.Time) *Event {
	for i := range events {
		if events[i].Timestamp.After(ts) {
			return &events[i]
		}
	}
	return nil
}

func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Inbox.Timestamp.Before(records[j].Inbox.Timestamp)
	})
}
