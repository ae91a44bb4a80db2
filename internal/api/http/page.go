package httpapi

import (
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-view/internal/view"
)

type pageData struct {
	view.Page
	AskLocation bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Weather</title>
<style>
body { margin: 0; font-family: sans-serif; }
main { min-height: 100vh; display: flex; flex-direction: column; align-items: center; justify-content: center; gap: 12px; }
.degrees { font-size: 48px; }
.error { color: #b00020; }
</style>
</head>
<body>
<main id="view" style="background-color: {{.Color}}">
	<form id="search">
		<input id="search-text" type="text" value="{{.SearchText}}" placeholder="City">
		<button type="submit">Search</button>
	</form>
	{{if .Loading}}<p>Loading...</p>{{end}}
	{{if .ErrorMessage}}<p class="error">{{.ErrorMessage}}</p>{{end}}
	{{if .ShowWeather}}
	<img src="{{.IconURL}}" alt="{{.Description}}">
	<div class="degrees">{{.DegreesLabel}}</div>
	<p>{{.Description}}</p>
	{{if .Place}}<p>{{.Place}}</p>{{end}}
	<input id="slider" type="range" min="{{.SliderMin}}" max="{{.SliderMax}}" step="1" value="{{.Degrees}}">
	{{end}}
</main>
<script>
const api = "/api/v1/view";
const post = (path, body) => fetch(api + path, {
	method: "POST",
	headers: {"Content-Type": "application/json"},
	body: JSON.stringify(body || {}),
});
const refresh = () => fetch(api).then(r => r.json()).then(p => {
	if (p.loading) { setTimeout(refresh, 500); return; }
	location.reload();
});
document.getElementById("search").addEventListener("submit", e => {
	e.preventDefault();
	post("/search", {city: document.getElementById("search-text").value}).then(refresh);
});
const slider = document.getElementById("slider");
if (slider) {
	slider.addEventListener("change", e => {
		post("/slider", {degrees: Number(e.target.value)}).then(() => location.reload());
	});
}
{{if .AskLocation}}
if (navigator.geolocation) {
	navigator.geolocation.getCurrentPosition(
		pos => post("/location", {lat: pos.coords.latitude, lon: pos.coords.longitude}).then(refresh),
		err => post("/location/failed", {reason: err.message}).then(() => location.reload()),
	);
} else {
	post("/location/failed", {reason: "geolocation not supported"}).then(() => location.reload());
}
{{else if .Loading}}
setTimeout(refresh, 500);
{{end}}
</script>
</body>
</html>
`))

func (h *handler) page(c *fiber.Ctx) error {
	s := h.view.Snapshot()
	data := pageData{
		Page: view.Render(s, h.opts.IconBaseURL),
		// Only ask on the initial load; later reloads reuse the reported position.
		AskLocation: h.opts.BrowserLocation && s.Pending == view.FetchNone && s.Loading(),
	}

	c.Type("html", "utf-8")
	return pageTemplate.Execute(c, data)
}
