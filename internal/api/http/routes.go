package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-view/internal/view"
	"github.com/i474232898/weather-view/internal/weather"
)

var validate = validator.New()

// applyTimeout bounds how long a handler waits for the view loop.
const applyTimeout = 5 * time.Second

// Options configures the routes.
type Options struct {
	IconBaseURL string
	// BrowserLocation makes the page ask the browser for its position.
	BrowserLocation bool
	Logger          *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, v *view.View, service *weather.Service, opts Options) {
	if opts.IconBaseURL == "" {
		opts.IconBaseURL = view.StaticContentBase
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &handler{view: v, service: service, opts: opts}

	app.Get("/", h.page)

	v1 := app.Group("/api/v1")

	v1.Get("/view", func(c *fiber.Ctx) error {
		return c.JSON(view.Render(v.Snapshot(), opts.IconBaseURL))
	})
	v1.Put("/view/search-text", h.editText)
	v1.Post("/view/search", h.search)
	v1.Post("/view/slider", h.slider)
	v1.Post("/view/location", h.locationResolved)
	v1.Post("/view/location/failed", h.locationFailed)

	v1.Get("/weather/current", h.current)
	v1.Get("/weather/latest", h.latest)
	v1.Get("/weather/history", h.history)
}

type handler struct {
	view    *view.View
	service *weather.Service
	opts    Options
}

// apply runs e through the view and responds with the resulting page.
func (h *handler) apply(c *fiber.Ctx, e view.Event) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), applyTimeout)
	defer cancel()

	s, err := h.view.Apply(ctx, e)
	if err != nil {
		if errors.Is(err, view.ErrClosed) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "view is shutting down")
		}
		return fiber.NewError(fiber.StatusGatewayTimeout, "view did not respond")
	}
	return c.JSON(view.Render(s, h.opts.IconBaseURL))
}

type textBody struct {
	Text string `json:"text"`
}

func (h *handler) editText(c *fiber.Ctx) error {
	var body textBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.apply(c, view.TextEdited{Text: body.Text})
}

// searchBody optionally carries the text to search for; without it the
// current search text is used. No validation: empty text is searched as is.
type searchBody struct {
	City *string `json:"city"`
}

func (h *handler) search(c *fiber.Ctx) error {
	var body searchBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if body.City != nil {
		if err := h.view.Dispatch(view.TextEdited{Text: *body.City}); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "view is shutting down")
		}
	}
	return h.apply(c, view.SearchSubmitted{})
}

type sliderBody struct {
	Degrees *float64 `json:"degrees" validate:"required,gte=-50,lte=50"`
}

func (h *handler) slider(c *fiber.Ctx) error {
	var body sliderBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.apply(c, view.SliderMoved{Value: *body.Degrees})
}

type locationBody struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

func (h *handler) locationResolved(c *fiber.Ctx) error {
	var body locationBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.apply(c, view.LocationResolved{Location: weather.Location{Lat: *body.Lat, Lon: *body.Lon}})
}

type failureBody struct {
	Reason string `json:"reason"`
}

func (h *handler) locationFailed(c *fiber.Ctx) error {
	var body failureBody
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&body)
	}
	reason := body.Reason
	if reason == "" {
		reason = "reported by client"
	}
	return h.apply(c, view.LocationFailed{Err: errors.New(reason)})
}

// currentQuery selects a place either by city or by coordinates.
type currentQuery struct {
	City string
	Lat  *float64 `validate:"omitempty,latitude"`
	Lon  *float64 `validate:"omitempty,longitude"`
}

func parseCurrentQuery(c *fiber.Ctx) (currentQuery, error) {
	var q currentQuery
	q.City = c.Query("city")

	for key, dst := range map[string]**float64{"lat": &q.Lat, "lon": &q.Lon} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.New("invalid " + key + " query parameter")
		}
		*dst = &f
	}

	if q.City == "" && (q.Lat == nil || q.Lon == nil) {
		return q, errors.New("either city or lat and lon are required")
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func (h *handler) current(c *fiber.Ctx) error {
	q, err := parseCurrentQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	var r weather.Reading
	if q.City != "" {
		r, err = h.service.ByCity(ctx, q.City)
	} else {
		r, err = h.service.ByCoordinates(ctx, weather.Location{Lat: *q.Lat, Lon: *q.Lon})
	}
	if err != nil {
		h.opts.Logger.Warn("current weather lookup failed", zap.Error(err))
		if errors.Is(err, weather.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
		}
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
	}

	return c.JSON(fiber.Map{
		"reading": r,
		"iconUrl": view.IconURL(h.opts.IconBaseURL, r),
	})
}

// latest serves the last logged reading without calling any provider.
func (h *handler) latest(c *fiber.Ctx) error {
	q, err := parseCurrentQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	key := weather.CityKey(q.City)
	if q.City == "" {
		key = weather.Location{Lat: *q.Lat, Lon: *q.Lon}.Key()
	}

	r, err := h.service.Latest(key)
	if err != nil {
		if errors.Is(err, weather.ErrNoHistory) {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest weather")
	}
	return c.JSON(r)
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (q *historyQuery) bind(c *fiber.Ctx) error {
	now := time.Now().UTC()
	q.From = now.Add(-24 * time.Hour)
	q.To = now

	if s := c.Query("from"); s != "" {
		from, err := parseTime(s)
		if err != nil {
			return err
		}
		q.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseTime(s)
		if err != nil {
			return err
		}
		q.To = to
	}
	return nil
}

func (h *handler) history(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	readings, err := h.service.History(req.From, req.To)
	if err != nil {
		if errors.Is(err, weather.ErrNoHistory) {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
	}

	return c.JSON(fiber.Map{
		"from":     req.From,
		"to":       req.To,
		"readings": readings,
	})
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
