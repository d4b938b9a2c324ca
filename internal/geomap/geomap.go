// Package geomap renders survey observations as standalone Leaflet maps:
// a signal heat map and a clustered marker map. Output is a single HTML
// file per map with tiles and plugins loaded from CDN, so the result
// opens anywhere without a server.
package geomap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"os"
	"sort"

	"wardrive/internal/dataset"
)

// ErrNoCoordinates means no row carried both latitude and longitude, so
// there is nothing to plot.
var ErrNoCoordinates = errors.New("no rows with coordinates")

const (
	zoomLevel  = 16
	heatRadius = 15
	heatBlur   = 10
)

// palette cycles across markers in sorted group order.
var palette = []string{"red", "blue", "green", "purple", "orange", "darkred", "darkblue"}

//go:embed heatmap.tmpl.html
var heatmapHTML string

//go:embed markers.tmpl.html
var markersHTML string

var (
	heatmapTmpl = template.Must(template.New("heatmap").Parse(heatmapHTML))
	markersTmpl = template.Must(template.New("markers").Parse(markersHTML))
)

// Point is one heat-map sample: a position and a normalized intensity.
type Point struct {
	Lat       float64
	Lon       float64
	Intensity float64
}

// Marker is one plotted network: all observations of an SSID at the
// same position collapse into a single marker.
type Marker struct {
	SSID     string  `json:"ssid"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	MeanRSSI float64 `json:"rssi"`
	Count    int     `json:"count"`
	Color    string  `json:"color"`
}

// Intensity maps an RSSI to heat weight: -100 dBm or worse is the 0.1
// floor, -60 dBm or better saturates at 1.0.
func Intensity(rssi float64) float64 {
	v := (rssi + 100) / 40
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}

// HeatPoints collects every observation with coordinates and a signal
// value.
func HeatPoints(ds *dataset.Dataset) []Point {
	var pts []Point
	for _, row := range ds.Rows {
		lat, ok := row.Float("CurrentLatitude")
		if !ok {
			continue
		}
		lon, ok := row.Float("CurrentLongitude")
		if !ok {
			continue
		}
		rssi, ok := row.Float("RSSI")
		if !ok {
			continue
		}
		pts = append(pts, Point{Lat: lat, Lon: lon, Intensity: Intensity(rssi)})
	}
	return pts
}

// Markers groups observations by network and position, averages the
// signal, and assigns palette colors in sorted order. SSIDs are escaped
// here because they land inside popup HTML.
func Markers(ds *dataset.Dataset) []Marker {
	type key struct {
		ssid string
		lat  float64
		lon  float64
	}
	type agg struct {
		count   int
		rssiSum float64
		rssiN   int
	}
	groups := make(map[key]*agg)
	for _, row := range ds.Rows {
		lat, ok := row.Float("CurrentLatitude")
		if !ok {
			continue
		}
		lon, ok := row.Float("CurrentLongitude")
		if !ok {
			continue
		}
		ssid, _ := row.String("SSID")
		k := key{ssid: ssid, lat: lat, lon: lon}
		g := groups[k]
		if g == nil {
			g = &agg{}
			groups[k] = g
		}
		g.count++
		if v, ok := row.Float("RSSI"); ok {
			g.rssiSum += v
			g.rssiN++
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ssid != b.ssid {
			return a.ssid < b.ssid
		}
		if a.lat != b.lat {
			return a.lat < b.lat
		}
		return a.lon < b.lon
	})

	out := make([]Marker, 0, len(keys))
	for i, k := range keys {
		g := groups[k]
		m := Marker{
			SSID:  html.EscapeString(k.ssid),
			Lat:   k.lat,
			Lon:   k.lon,
			Count: g.count,
			Color: palette[i%len(palette)],
		}
		if g.rssiN > 0 {
			m.MeanRSSI = g.rssiSum / float64(g.rssiN)
		}
		out = append(out, m)
	}
	return out
}

type mapData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Radius    int
	Blur      int
	Data      template.JS
}

// WriteHeatMap renders the heat map to path and reports how many points
// it plotted.
func WriteHeatMap(path string, ds *dataset.Dataset) (int, error) {
	pts := HeatPoints(ds)
	if len(pts) == 0 {
		return 0, fmt.Errorf("heat map %s: %w", path, ErrNoCoordinates)
	}

	rows := make([][3]float64, len(pts))
	var latSum, lonSum float64
	for i, p := range pts {
		rows[i] = [3]float64{p.Lat, p.Lon, p.Intensity}
		latSum += p.Lat
		lonSum += p.Lon
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("heat map %s: %w", path, err)
	}

	data := mapData{
		Title:     "Signal heat map",
		CenterLat: latSum / float64(len(pts)),
		CenterLon: lonSum / float64(len(pts)),
		Zoom:      zoomLevel,
		Radius:    heatRadius,
		Blur:      heatBlur,
		Data:      template.JS(raw),
	}
	if err := render(path, heatmapTmpl, data); err != nil {
		return 0, err
	}
	return len(pts), nil
}

// WriteMarkerMap renders the per-network marker map to path and reports
// how many markers it plotted.
func WriteMarkerMap(path string, ds *dataset.Dataset) (int, error) {
	ms := Markers(ds)
	if len(ms) == 0 {
		return 0, fmt.Errorf("marker map %s: %w", path, ErrNoCoordinates)
	}

	var latSum, lonSum float64
	for _, m := range ms {
		latSum += m.Lat
		lonSum += m.Lon
	}
	raw, err := json.Marshal(ms)
	if err != nil {
		return 0, fmt.Errorf("marker map %s: %w", path, err)
	}

	data := mapData{
		Title:     "Detected networks",
		CenterLat: latSum / float64(len(ms)),
		CenterLon: lonSum / float64(len(ms)),
		Zoom:      zoomLevel,
		Data:      template.JS(raw),
	}
	if err := render(path, markersTmpl, data); err != nil {
		return 0, err
	}
	return len(ms), nil
}

func render(path string, tmpl *template.Template, data mapData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
