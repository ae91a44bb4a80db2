package weather

import (
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// owmCondition is the OpenWeatherMap triple used for icons and categories.
type owmCondition struct {
	id   int
	main string
	icon string // without the day/night suffix
}

var owmConditions = map[Condition]owmCondition{
	ConditionClear:  {id: 800, main: "Clear", icon: "01"},
	ConditionCloudy: {id: 803, main: "Clouds", icon: "04"},
	ConditionRain:   {id: 501, main: "Rain", icon: "10"},
	ConditionSnow:   {id: 601, main: "Snow", icon: "13"},
	ConditionStorm:  {id: 211, main: "Thunderstorm", icon: "11"},
	ConditionMist:   {id: 701, main: "Mist", icon: "50"},
}

// OWM returns the OpenWeatherMap condition id, main category and icon id
// that best match c. Providers that do not publish OWM icons use it so every
// reading can be rendered from the same icon host.
func (c Condition) OWM(isDay bool) (id int, main, icon string) {
	oc, ok := owmConditions[c]
	if !ok {
		// Unknown conditions render as scattered clouds.
		oc = owmCondition{id: 802, main: "Clouds", icon: "03"}
	}
	suffix := "n"
	if isDay {
		suffix = "d"
	}
	return oc.id, oc.main, oc.icon + suffix
}

// Location is a point on the map, optionally labelled with a city.
// Lat/Lon are always set; City/Country are informative.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	if l.City != "" {
		return l.City + ":" + l.Country
	}
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Reading is a snapshot of current conditions as shown by the view.
type Reading struct {
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ConditionID int       `json:"conditionId"`
	Main        string    `json:"main"`
	DegreesC    float64   `json:"degreesC"`
	Place       string    `json:"place,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"` // always UTC
}
