package demo

import (
	"arcgo/config"
	"arcgo/geocoding"
	"arcgo/geometry"
	"arcgo/metrics"
	"arcgo/portal"
	"arcgo/rest"
	"arcgo/webmap"
	"context"
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"io"
	"strings"
)

const (
	sectionLine = 40
	boxLine     = 60
)

// Runner runs the example procedures. All output meant for the user is written to the writer, diagnostics go to the
// log.
type Runner struct {
	out     io.Writer
	cfg     *config.Config
	client  *rest.Client
	metrics *metrics.Metrics
	printer *message.Printer

	// Opens exported maps. Replaced in tests.
	openFile func(path string) error
}

func NewRunner(out io.Writer, cfg *config.Config, client *rest.Client, m *metrics.Metrics) *Runner {
	return &Runner{
		out:      out,
		cfg:      cfg,
		client:   client,
		metrics:  m,
		printer:  message.NewPrinter(language.English),
		openFile: webmap.Open,
	}
}

// services are the connections shared by the steps of one example.
type services struct {
	gis      *portal.GIS
	geocoder geocoding.Geocoder
	geometry *geometry.Service
}

// connect creates a session with the configured credentials. Failed authentication is reported and an anonymous
// session is used instead. Without credentials the session is anonymous right away.
func (r *Runner) connect(ctx context.Context) (*services, error) {
	var gis *portal.GIS
	if r.cfg.HasCredentials() {
		var err error
		gis, err = portal.Connect(ctx, r.client, r.cfg.PortalOptions())
		if err != nil {
			sigolo.Errorf("Authentication failed, continue anonymously: %+v", err)
			r.printf("✗ Authentication failed: %s\n", err)
			r.printf("  Continue anonymously\n\n")
			gis = nil
		}
	}

	if gis == nil {
		var err error
		gis, err = portal.Connect(ctx, r.client, r.anonymousOptions())
		if err != nil {
			return nil, err
		}
	}

	return r.newServices(gis), nil
}

func (r *Runner) newServices(gis *portal.GIS) *services {
	geocoder := geocoding.NewClient(r.cfg.Services.Geocode, gis.Client(), r.cfg.Geocoding.BatchSize)
	return &services{
		gis:      gis,
		geocoder: geocoding.NewCachedGeocoder(geocoder, r.cfg.Geocoding.CacheSize, r.metrics),
		geometry: geometry.NewService(r.cfg.Services.Geometry, gis.Client()),
	}
}

func (r *Runner) anonymousOptions() portal.Options {
	return portal.Options{URL: r.cfg.Portal.URL}
}

func (r *Runner) printf(format string, args ...any) {
	_, err := fmt.Fprintf(r.out, format, args...)
	if err != nil {
		sigolo.Debugf("Unable to write output: %+v", err)
	}
}

func (r *Runner) println(lines ...string) {
	for _, line := range lines {
		r.printf("%s\n", line)
	}
}

func (r *Runner) header(title string) {
	r.printf("=== %s ===\n\n", title)
}

func (r *Runner) section(title string) {
	r.printf("%s\n%s\n", title, strings.Repeat("-", sectionLine))
}

func (r *Runner) box(lines ...string) {
	r.printf("\n%s\n", strings.Repeat("=", boxLine))
	r.println(lines...)
	r.printf("%s\n", strings.Repeat("=", boxLine))
}

func (r *Runner) completed() {
	r.printf("\nExample completed!\n")
}

// stepFailed reports an error of a step which doesn't stop the example.
func (r *Runner) stepFailed(what string, err error) {
	sigolo.Errorf("Error %s: %+v", what, err)
	r.printf("  Error %s: %s\n", what, err)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

func wrapConnectError(err error) error {
	return errors.Wrap(err, "Unable to connect to ArcGIS Online")
}
