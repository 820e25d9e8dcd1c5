// Package uploadstate models the upload flow as a pure transition function.
package uploadstate

import "github.com/dmitrijs2005/mediaqr/internal/client/models"

type Status string

const (
	Idle      Status = "idle"
	Uploading Status = "uploading"
	Success   Status = "success"
	Error     Status = "error"
)

// State is an observable snapshot of the upload flow. Entry is set only in
// Success, Message only in Error.
type State struct {
	Status  Status
	Entry   *models.HistoryEntry
	Message string
}

type EventKind string

const (
	Start   EventKind = "start"
	Succeed EventKind = "succeed"
	Fail    EventKind = "fail"
	Reset   EventKind = "reset"
)

type Event struct {
	Kind    EventKind
	Entry   *models.HistoryEntry
	Message string
}

func StartEvent() Event { return Event{Kind: Start} }

func SucceedEvent(e models.HistoryEntry) Event { return Event{Kind: Succeed, Entry: &e} }

func FailEvent(msg string) Event { return Event{Kind: Fail, Message: msg} }

func ResetEvent() Event { return Event{Kind: Reset} }

// Initial is the state before any file is selected.
func Initial() State { return State{Status: Idle} }

// Next returns the state reached from s on ev. Transitions that are not
// allowed return s unchanged.
//
//	idle|success|error --start--> uploading
//	idle|success|error --fail---> error       (validation failures)
//	uploading ---------succeed--> success
//	uploading ---------fail-----> error
//	any ---------------reset----> idle
func Next(s State, ev Event) State {
	switch ev.Kind {
	case Reset:
		return Initial()

	case Start:
		if s.Status == Uploading {
			return s
		}
		return State{Status: Uploading}

	case Succeed:
		if s.Status != Uploading || ev.Entry == nil {
			return s
		}
		e := *ev.Entry
		return State{Status: Success, Entry: &e}

	case Fail:
		return State{Status: Error, Message: ev.Message}
	}
	return s
}

// Busy reports whether an upload is in flight.
func (s State) Busy() bool {
	return s.Status == Uploading
}
