// Package view implements the weather view: a state record owned by a single
// event loop, a pure reducer that moves it between Loading, Failed and Ready,
// and a render model derived from it.
package view

import (
	"github.com/i474232898/weather-view/internal/weather"
)

// Status is the tagged phase of the view: Loading, Failed or Ready.
// Only Failed carries an error, so a loading view cannot hold a message.
type Status interface {
	status()
}

// Loading means a location or weather request is outstanding.
type Loading struct{}

// Ready means Reading holds the result of the last successful fetch.
type Ready struct{}

// Failed replaces the weather display with the failure's message.
type Failed struct {
	Failure Failure
}

func (Loading) status() {}
func (Ready) status()   {}
func (Failed) status()  {}

// Failure is one of the fixed, user-facing error outcomes.
type Failure int

const (
	FailureLocation Failure = iota + 1
	FailureFetchLocation
	FailureFetchCity
)

func (f Failure) Message() string {
	switch f {
	case FailureLocation:
		return "Unable to get your location"
	case FailureFetchLocation:
		return "Unable to fetch weather for your location, try later"
	case FailureFetchCity:
		return "Unable to fetch weather for the searched location, try later"
	default:
		return ""
	}
}

// Fetch names the weather request a view is waiting on.
type Fetch int

const (
	FetchNone Fetch = iota
	FetchLocation
	FetchCity
)

// State is everything the view renders from.
type State struct {
	Status     Status
	Location   weather.Location
	Reading    weather.Reading
	SearchText string

	// Seq identifies the most recently issued fetch. Results carrying any
	// other value are stale.
	Seq     uint64
	Pending Fetch
}

// Initial returns the state of a freshly mounted view.
func Initial() State {
	return State{Status: Loading{}}
}

func (s State) Loading() bool {
	_, ok := s.Status.(Loading)
	return ok
}

// ErrorMessage returns the message to display, or "" when not failed.
func (s State) ErrorMessage() string {
	if f, ok := s.Status.(Failed); ok {
		return f.Failure.Message()
	}
	return ""
}

// IsCurrent reports whether seq belongs to the latest issued fetch.
func (s State) IsCurrent(seq uint64) bool {
	return s.Pending != FetchNone && seq == s.Seq
}
