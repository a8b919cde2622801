package main

import (
	"arcgo/config"
	"arcgo/demo"
	"arcgo/feature"
	"arcgo/geometry"
	"arcgo/metrics"
	"arcgo/portal"
	"arcgo/rest"
	"arcgo/util"
	"arcgo/web"
	"context"
	"fmt"
	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/prometheus/client_golang/prometheus"
	"os"
	"os/signal"
	"strings"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Config  string      `help:"The config file with credentials and service settings. A missing file is fine." placeholder:"<config-file>" short:"c" default:"arcgo.yaml"`

	Connect   struct{} `cmd:"" help:"Connects to ArcGIS Online and searches public content."`
	Geocoding struct{} `cmd:"" help:"Geocodes, reverse geocodes and batch geocodes addresses."`
	Spatial   struct{} `cmd:"" help:"Runs distance, buffer, area and relation operations."`
	Map       struct{} `cmd:"" help:"Creates web maps with markers and basemaps."`
	Features  struct {
		Geojson string `help:"Exports the USA states into this GeoJSON file." placeholder:"<geojson-file>"`
	} `cmd:"" help:"Searches and queries feature layers."`
	SimpleMap struct{} `cmd:"" help:"Exports a map of San Francisco to HTML and opens it in the browser."`
	Distance  struct {
		From string `help:"Start as 'latitude,longitude'. Use --from=<value> for negative latitudes." default:"37.7749,-122.4194"`
		To   string `help:"End as 'latitude,longitude'. Use --to=<value> for negative latitudes." default:"40.7128,-74.0060"`
	} `cmd:"" help:"Calculates the approximate distance between two points without any service."`
	Serve struct {
		Port string `help:"The port of the server." short:"p" default:"8080"`
		Cert string `help:"Certificate file to serve with TLS." placeholder:"<cert-file>" type:"existingfile"`
		Key  string `help:"Key file to serve with TLS." placeholder:"<key-file>" type:"existingfile"`
	} `cmd:"" help:"Serves the exported map, queries of the USA states layer and metrics."`
	ConfigCmd struct {
		Init struct{} `cmd:"" help:"Writes a config file template to the --config path."`
	} `cmd:"" name:"config" help:"Manages the config file."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("arcgo"),
		kong.Description("Examples for working with ArcGIS Online: connections, geocoding, spatial analysis, maps and feature layers."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	if ctx.Command() == "config init" {
		err := config.WriteTemplate(cli.Config)
		sigolo.FatalCheck(err)
		return
	}

	cfg, err := config.Load(cli.Config)
	sigolo.FatalCheck(err)

	proxyUrl, err := cfg.Proxy.URL()
	sigolo.FatalCheck(err)

	m := metrics.New(prometheus.DefaultRegisterer)
	client := rest.NewClient(rest.NewHTTPClient(cfg.HTTP.Timeout, proxyUrl), cfg.Portal.Referer, m)
	runner := demo.NewRunner(os.Stdout, cfg, client, m)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch ctx.Command() {
	case "connect":
		err = runner.Connection(signalCtx)
	case "geocoding":
		err = runner.Geocoding(signalCtx)
	case "spatial":
		err = runner.SpatialAnalysis(signalCtx)
	case "map":
		err = runner.MapVisualization(signalCtx)
	case "features":
		err = runner.FeatureLayers(signalCtx, cli.Features.Geojson)
	case "simple-map":
		err = runner.SimpleMap(signalCtx)
	case "distance":
		from, parseErr := geometry.ParseLatLon(cli.Distance.From)
		sigolo.FatalCheck(parseErr)
		to, parseErr := geometry.ParseLatLon(cli.Distance.To)
		sigolo.FatalCheck(parseErr)
		runner.Distance(from, to)
	case "serve":
		serve(signalCtx, cfg, client)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
	sigolo.FatalCheck(err)
}

func serve(ctx context.Context, cfg *config.Config, client *rest.Client) {
	mapFile, err := util.ExpandHome(cfg.Map.OutputFile)
	sigolo.FatalCheck(err)

	if cfg.HasCredentials() {
		gis, err := portal.Connect(ctx, client, cfg.PortalOptions())
		if err != nil {
			sigolo.Warnf("Authentication failed, serve layer anonymously: %+v", err)
		} else {
			client = gis.Client()
		}
	}
	layer := feature.NewLayer(cfg.Services.StatesLayer, client)

	if cli.Serve.Cert != "" || cli.Serve.Key != "" {
		web.StartServerTls(cli.Serve.Port, cli.Serve.Cert, cli.Serve.Key, mapFile, layer, prometheus.DefaultGatherer)
	} else {
		web.StartServer(cli.Serve.Port, mapFile, layer, prometheus.DefaultGatherer)
	}
}
