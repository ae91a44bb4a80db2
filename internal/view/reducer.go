package view

import (
	"math"

	"github.com/i474232898/weather-view/internal/weather"
)

// Event is something that happened to the view.
type Event interface {
	event()
}

// LocationResolved reports the viewer's position.
type LocationResolved struct {
	Location weather.Location
}

// LocationFailed reports that no position could be obtained.
type LocationFailed struct {
	Err error
}

// WeatherFetched carries the reading returned for fetch Seq.
type WeatherFetched struct {
	Seq     uint64
	Reading weather.Reading
}

// FetchFailed carries the error returned for fetch Seq.
type FetchFailed struct {
	Seq uint64
	Err error
}

// SearchSubmitted asks for the weather of the current search text.
type SearchSubmitted struct{}

// SliderMoved previews a different temperature locally.
type SliderMoved struct {
	Value float64
}

// TextEdited replaces the search text.
type TextEdited struct {
	Text string
}

func (LocationResolved) event() {}
func (LocationFailed) event()   {}
func (WeatherFetched) event()   {}
func (FetchFailed) event()      {}
func (SearchSubmitted) event()  {}
func (SliderMoved) event()      {}
func (TextEdited) event()       {}

// Command is a side effect the reducer asks the loop to perform.
type Command interface {
	command()
}

// FetchByLocation requests the weather at Location for fetch Seq.
type FetchByLocation struct {
	Seq      uint64
	Location weather.Location
}

// FetchByCity requests the weather of City for fetch Seq.
type FetchByCity struct {
	Seq  uint64
	City string
}

func (FetchByLocation) command() {}
func (FetchByCity) command()     {}

// Reduce applies e to s. It has no side effects; a non-nil Command must be
// executed by the caller and its outcome fed back as an event.
func Reduce(s State, e Event) (State, Command) {
	switch e := e.(type) {
	case LocationResolved:
		s.Location = e.Location
		s.Seq++
		s.Pending = FetchLocation
		s.Status = Loading{}
		return s, FetchByLocation{Seq: s.Seq, Location: e.Location}

	case LocationFailed:
		// Anything still in flight predates this report and is dropped.
		s.Seq++
		s.Pending = FetchNone
		s.Status = Failed{Failure: FailureLocation}
		return s, nil

	case SearchSubmitted:
		s.Seq++
		s.Pending = FetchCity
		s.Status = Loading{}
		return s, FetchByCity{Seq: s.Seq, City: s.SearchText}

	case WeatherFetched:
		if !s.IsCurrent(e.Seq) {
			return s, nil
		}
		s.Reading = e.Reading
		s.Pending = FetchNone
		s.Status = Ready{}
		return s, nil

	case FetchFailed:
		if !s.IsCurrent(e.Seq) {
			return s, nil
		}
		failure := FailureFetchLocation
		if s.Pending == FetchCity {
			failure = FailureFetchCity
		}
		s.Pending = FetchNone
		s.Status = Failed{Failure: failure}
		return s, nil

	case SliderMoved:
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return s, nil
		}
		s.Reading.DegreesC = e.Value
		return s, nil

	case TextEdited:
		s.SearchText = e.Text
		return s, nil
	}

	return s, nil
}
