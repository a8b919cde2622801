package webmap

import (
	"arcgo/geocoding"
	"arcgo/geometry"
	"arcgo/util"
	"bytes"
	"context"
	_ "embed"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	htmlTemplate "html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

const (
	DefaultZoom    = 10
	DefaultBasemap = "topo"
	DefaultTitle   = "ArcGIS Map"

	sdkURL = "https://js.arcgis.com/4.30"
)

var ErrLocationNotFound = errors.New("Location not found")

// Legacy basemap names mapped to the basemap IDs of the ArcGIS Maps SDK for JavaScript.
var basemaps = map[string]string{
	"streets":             "streets-vector",
	"satellite":           "satellite",
	"hybrid":              "hybrid",
	"topo":                "topo-vector",
	"gray":                "gray-vector",
	"dark-gray":           "dark-gray-vector",
	"oceans":              "oceans",
	"national-geographic": "national-geographic",
	"terrain":             "terrain",
	"osm":                 "osm",
}

// Opens a file in the default browser. Replaced in tests.
var openFile = browser.OpenFile

//go:embed map.html.tpl
var mapTemplateString string

var mapTemplate = htmlTemplate.Must(htmlTemplate.New("map").Parse(mapTemplateString))

type Marker struct {
	Label    string
	Location geometry.Point
}

// Map describes an interactive web map. It's rendered by the JavaScript SDK in the browser, this type only holds what
// is shown.
type Map struct {
	Title   string
	Center  orb.Point
	Zoom    int
	Markers []Marker

	basemap string
}

func New(center orb.Point, zoom int) *Map {
	if zoom <= 0 {
		zoom = DefaultZoom
	}

	return &Map{
		Title:   DefaultTitle,
		Center:  center,
		Zoom:    zoom,
		basemap: DefaultBasemap,
	}
}

// NewForLocation creates a map centered on the best match of the given location. ErrLocationNotFound is returned when
// the location can't be geocoded.
func NewForLocation(ctx context.Context, geocoder geocoding.Geocoder, location string, zoom int) (*Map, error) {
	candidates, err := geocoder.Geocode(ctx, location, 1)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to create map for location '%s'", location)
	}
	if len(candidates) == 0 {
		return nil, errors.Wrapf(ErrLocationNotFound, "Unable to create map for location '%s'", location)
	}

	sigolo.Debugf("Center map on '%s' at %v", candidates[0].Address, candidates[0].Location.Point)
	return New(candidates[0].Location.Point, zoom), nil
}

// Basemap returns the name of the basemap as given to SetBasemap.
func (m *Map) Basemap() string {
	return m.basemap
}

// SetBasemap sets one of the basemaps streets, satellite, hybrid, topo, gray, dark-gray, oceans, national-geographic,
// terrain or osm.
func (m *Map) SetBasemap(name string) error {
	if _, ok := basemaps[name]; !ok {
		return errors.Errorf("Unknown basemap '%s', available basemaps: %v", name, BasemapNames())
	}
	m.basemap = name
	return nil
}

func BasemapNames() []string {
	var names []string
	for name := range basemaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Map) SetTitle(title string) {
	m.Title = title
}

// AddMarker adds a marker with a popup showing the label. Empty locations are ignored.
func (m *Map) AddMarker(label string, location geometry.Point) {
	if location.IsEmpty() {
		sigolo.Warnf("Ignore marker '%s' without location", label)
		return
	}
	m.Markers = append(m.Markers, Marker{Label: label, Location: location})
}

type templateMarker struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type templateData struct {
	Title   string
	SdkURL  string
	Basemap string
	Center  []float64
	Zoom    int
	Markers []templateMarker
}

// WriteHTML writes a standalone, minified HTML page showing the map.
func (m *Map) WriteHTML(writer io.Writer) error {
	data := templateData{
		Title:   m.Title,
		SdkURL:  sdkURL,
		Basemap: basemaps[m.basemap],
		Center:  []float64{m.Center.Lon(), m.Center.Lat()},
		Zoom:    m.Zoom,
		Markers: []templateMarker{},
	}
	for _, marker := range m.Markers {
		data.Markers = append(data.Markers, templateMarker{
			Label: marker.Label,
			X:     marker.Location.X(),
			Y:     marker.Location.Y(),
		})
	}

	var buffer bytes.Buffer
	err := mapTemplate.Execute(&buffer, data)
	if err != nil {
		return errors.Wrap(err, "Unable to render map template")
	}

	err = newMinifier().Minify("text/html", writer, &buffer)
	if err != nil {
		return errors.Wrap(err, "Unable to minify map HTML")
	}

	return nil
}

// ExportToHTML writes the map into the given file. A leading "~" is expanded to the home folder and missing folders
// are created. The expanded path is returned.
func (m *Map) ExportToHTML(path string) (string, error) {
	path, err := util.ExpandHome(path)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(filepath.Dir(path), os.ModePerm)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to create folder for map file %s", path)
	}

	var buffer bytes.Buffer
	err = m.WriteHTML(&buffer)
	if err != nil {
		return "", err
	}

	err = os.WriteFile(path, buffer.Bytes(), 0644)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to write map file %s", path)
	}

	sigolo.Debugf("Exported map to %s", path)
	return path, nil
}

// Open opens the given HTML file in the default browser.
func Open(path string) error {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to get absolute path of %s", path)
	}

	err = openFile(absolutePath)
	if err != nil {
		return errors.Wrapf(err, "Unable to open %s in browser", absolutePath)
	}
	return nil
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}
