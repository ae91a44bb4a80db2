package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/weather-view/internal/weather"
)

// StaticContentBase hosts the OpenWeatherMap condition icons.
const StaticContentBase = "https://openweathermap.org"

// Slider bounds for previewing temperatures.
const (
	SliderMin = -50
	SliderMax = 50
)

// Bucket names the background color for a temperature range.
type Bucket string

const (
	BucketDefault Bucket = "default"
	BucketSnow    Bucket = "snow"
	BucketCool    Bucket = "cool"
	BucketWarm    Bucket = "warm"
	BucketHot     Bucket = "hot"
)

var bucketColors = map[Bucket]string{
	BucketDefault: "#e0e0e0",
	BucketSnow:    "#aee2ff",
	BucketCool:    "#fff4b3",
	BucketWarm:    "#ffc46b",
	BucketHot:     "#ff7a45",
}

// Hex returns the CSS color of b.
func (b Bucket) Hex() string {
	if c, ok := bucketColors[b]; ok {
		return c
	}
	return bucketColors[BucketDefault]
}

// BucketFor maps degrees Celsius to a bucket. Each range includes its upper
// bound; NaN matches no range and falls through to the default.
func BucketFor(degrees float64) Bucket {
	switch {
	case degrees <= -10:
		return BucketSnow
	case degrees > -10 && degrees <= 10:
		return BucketCool
	case degrees > 10 && degrees <= 30:
		return BucketWarm
	case degrees > 30:
		return BucketHot
	default:
		return BucketDefault
	}
}

// Background returns the bucket for s. A loading view is always default.
func Background(s State) Bucket {
	if s.Loading() {
		return BucketDefault
	}
	return BucketFor(s.Reading.DegreesC)
}

// IconURL returns the address of the reading's condition icon.
func IconURL(base string, r weather.Reading) string {
	return fmt.Sprintf("%s/img/wn/%s@2x.png", strings.TrimRight(base, "/"), r.Icon)
}

// FormatDegrees renders a temperature as "+22°C", "0°C" or "-15°C".
func FormatDegrees(degrees float64) string {
	v := strconv.FormatFloat(math.Abs(degrees), 'f', -1, 64)
	switch {
	case degrees > 0:
		return "+" + v + "°C"
	case degrees < 0:
		return "-" + v + "°C"
	default:
		return v + "°C"
	}
}

// Page is the render model of the view.
type Page struct {
	Loading      bool    `json:"loading"`
	ErrorMessage string  `json:"errorMessage"`
	Background   Bucket  `json:"background"`
	Color        string  `json:"color"`
	ShowWeather  bool    `json:"showWeather"`
	IconURL      string  `json:"iconUrl,omitempty"`
	Degrees      float64 `json:"degrees"`
	DegreesLabel string  `json:"degreesLabel,omitempty"`
	Description  string  `json:"description,omitempty"`
	Place        string  `json:"place,omitempty"`
	SearchText   string  `json:"searchText"`
	SliderMin    float64 `json:"sliderMin"`
	SliderMax    float64 `json:"sliderMax"`
}

// Render derives the page from s. Weather fields are only filled when the
// view is Ready.
func Render(s State, iconBase string) Page {
	bg := Background(s)
	p := Page{
		Loading:      s.Loading(),
		ErrorMessage: s.ErrorMessage(),
		Background:   bg,
		Color:        bg.Hex(),
		SearchText:   s.SearchText,
		SliderMin:    SliderMin,
		SliderMax:    SliderMax,
	}

	if _, ok := s.Status.(Ready); !ok {
		return p
	}

	p.ShowWeather = true
	p.IconURL = IconURL(iconBase, s.Reading)
	p.Degrees = s.Reading.DegreesC
	p.DegreesLabel = FormatDegrees(s.Reading.DegreesC)
	p.Description = "It's " + s.Reading.Description
	p.Place = s.Reading.Place
	return p
}
