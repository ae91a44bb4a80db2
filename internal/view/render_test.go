package view

import (
	"math"
	"strings"
	"testing"

	"github.com/i474232898/weather-view/internal/weather"
)

func TestBucketForBoundaries(t *testing.T) {
	cases := []struct {
		degrees float64
		want    Bucket
	}{
		{-50, BucketSnow},
		{-10, BucketSnow},
		{-9.999, BucketCool},
		{0, BucketCool},
		{10, BucketCool},
		{10.001, BucketWarm},
		{30, BucketWarm},
		{30.001, BucketHot},
		{50, BucketHot},
		{math.Inf(-1), BucketSnow},
		{math.Inf(1), BucketHot},
		{math.NaN(), BucketDefault},
	}
	for _, tc := range cases {
		if got := BucketFor(tc.degrees); got != tc.want {
			t.Errorf("BucketFor(%v) = %s, want %s", tc.degrees, got, tc.want)
		}
	}
}

func TestBackgroundDefaultWhileLoading(t *testing.T) {
	s := Initial()
	for _, d := range []float64{-40, 0, 20, 40} {
		s.Reading.DegreesC = d
		if got := Background(s); got != BucketDefault {
			t.Fatalf("expected default while loading at %v, got %s", d, got)
		}
	}
}

func TestIconURL(t *testing.T) {
	r := weather.Reading{Icon: "01d"}
	first := IconURL(StaticContentBase, r)
	if first != "https://openweathermap.org/img/wn/01d@2x.png" {
		t.Fatalf("unexpected icon url: %s", first)
	}
	if second := IconURL(StaticContentBase, r); second != first {
		t.Fatalf("expected identical urls, got %s and %s", first, second)
	}
	if got := IconURL("http://icons.local/", r); got != "http://icons.local/img/wn/01d@2x.png" {
		t.Fatalf("expected trailing slash to be trimmed, got %s", got)
	}
}

func TestFormatDegrees(t *testing.T) {
	cases := map[float64]string{
		22:    "+22°C",
		0:     "0°C",
		-15:   "-15°C",
		12.5:  "+12.5°C",
		-0.25: "-0.25°C",
	}
	for d, want := range cases {
		if got := FormatDegrees(d); got != want {
			t.Errorf("FormatDegrees(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestRenderReady(t *testing.T) {
	s := State{
		Status: Ready{},
		Reading: weather.Reading{
			Description: "clear sky",
			Icon:        "01d",
			DegreesC:    22,
			Place:       "London, GB",
		},
		SearchText: "Lon",
	}
	p := Render(s, StaticContentBase)

	if p.Loading || p.ErrorMessage != "" || !p.ShowWeather {
		t.Fatalf("unexpected flags: %+v", p)
	}
	if p.Background != BucketWarm || p.Color != BucketWarm.Hex() {
		t.Fatalf("expected warm background, got %s %s", p.Background, p.Color)
	}
	if !strings.HasSuffix(p.IconURL, "01d@2x.png") {
		t.Fatalf("unexpected icon url: %s", p.IconURL)
	}
	if p.DegreesLabel != "+22°C" || p.Description != "It's clear sky" {
		t.Fatalf("unexpected labels: %q %q", p.DegreesLabel, p.Description)
	}
	if p.SliderMin != -50 || p.SliderMax != 50 || p.SearchText != "Lon" {
		t.Fatalf("unexpected controls: %+v", p)
	}
}

func TestRenderFailedSuppressesWeather(t *testing.T) {
	s := State{
		Status:  Failed{Failure: FailureFetchCity},
		Reading: weather.Reading{Description: "old", Icon: "01d", DegreesC: 5},
	}
	p := Render(s, StaticContentBase)
	if p.ShowWeather || p.IconURL != "" || p.DegreesLabel != "" || p.Description != "" {
		t.Fatalf("expected weather fields to be suppressed, got %+v", p)
	}
	if p.ErrorMessage != FailureFetchCity.Message() {
		t.Fatalf("unexpected error message: %q", p.ErrorMessage)
	}
}

func TestRenderLoading(t *testing.T) {
	p := Render(Initial(), StaticContentBase)
	if !p.Loading || p.ShowWeather || p.ErrorMessage != "" || p.Background != BucketDefault {
		t.Fatalf("unexpected loading page: %+v", p)
	}
}
