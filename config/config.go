package config

import (
	"arcgo/feature"
	"arcgo/geocoding"
	"arcgo/geometry"
	"arcgo/portal"
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const DefaultFile = "arcgo.yaml"

type Config struct {
	Portal    PortalConfig    `mapstructure:"portal" yaml:"portal"`
	Services  ServicesConfig  `mapstructure:"services" yaml:"services"`
	Geocoding GeocodingConfig `mapstructure:"geocoding" yaml:"geocoding"`
	Proxy     ProxyConfig     `mapstructure:"proxy" yaml:"proxy"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Map       MapConfig       `mapstructure:"map" yaml:"map"`
}

type PortalConfig struct {
	URL             string        `mapstructure:"url" yaml:"url"`
	Username        string        `mapstructure:"username" yaml:"username"`
	Password        string        `mapstructure:"password" yaml:"password"`
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	Referer         string        `mapstructure:"referer" yaml:"referer"`
	TokenExpiration time.Duration `mapstructure:"token_expiration" yaml:"token_expiration"`
}

type ServicesConfig struct {
	Geocode     string `mapstructure:"geocode" yaml:"geocode"`
	Geometry    string `mapstructure:"geometry" yaml:"geometry"`
	StatesLayer string `mapstructure:"states_layer" yaml:"states_layer"`
}

type GeocodingConfig struct {
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

type ProxyConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type MapConfig struct {
	OutputFile  string `mapstructure:"output_file" yaml:"output_file"`
	Title       string `mapstructure:"title" yaml:"title"`
	OpenBrowser bool   `mapstructure:"open_browser" yaml:"open_browser"`
}

// Environment variables with fixed names. All other settings can be set with the ARCGIS_ prefix, e.g. the HTTP timeout
// with ARCGIS_HTTP_TIMEOUT.
var envBindings = map[string]string{
	"portal.username": "ARCGIS_USERNAME",
	"portal.password": "ARCGIS_PASSWORD",
	"portal.url":      "ARCGIS_ORG_URL",
	"portal.api_key":  "ARCGIS_API_KEY",
	"proxy.host":      "PROXY_HOST",
	"proxy.port":      "PROXY_PORT",
}

func Default() Config {
	return Config{
		Portal: PortalConfig{
			URL:             portal.DefaultURL,
			Referer:         "arcgo",
			TokenExpiration: portal.DefaultTokenExpiration,
		},
		Services: ServicesConfig{
			Geocode:     geocoding.DefaultServiceURL,
			Geometry:    geometry.DefaultServiceURL,
			StatesLayer: feature.UsaStatesLayerURL,
		},
		Geocoding: GeocodingConfig{
			CacheSize: 256,
			BatchSize: geocoding.DefaultBatchSize,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Map: MapConfig{
			OutputFile:  "~/arcgis_project/my_interactive_map.html",
			Title:       "My San Francisco Map",
			OpenBrowser: true,
		},
	}
}

// Load reads the configuration from the defaults, the optional YAML file and the environment, in that order. A missing
// file is not an error since all settings have usable defaults and credentials are optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		if err != nil && os.IsNotExist(errors.Cause(err)) {
			sigolo.Debugf("No config file %s found, use defaults and environment", path)
		} else if err != nil {
			return nil, errors.Wrapf(err, "Unable to read config file %s", path)
		} else {
			sigolo.Debugf("Read config file %s", path)
		}
	}

	v.SetEnvPrefix("ARCGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		err := v.BindEnv(key, env)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to bind environment variable %s", env)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse config")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults Config) {
	v.SetDefault("portal.url", defaults.Portal.URL)
	v.SetDefault("portal.username", defaults.Portal.Username)
	v.SetDefault("portal.password", defaults.Portal.Password)
	v.SetDefault("portal.api_key", defaults.Portal.APIKey)
	v.SetDefault("portal.referer", defaults.Portal.Referer)
	v.SetDefault("portal.token_expiration", defaults.Portal.TokenExpiration)
	v.SetDefault("services.geocode", defaults.Services.Geocode)
	v.SetDefault("services.geometry", defaults.Services.Geometry)
	v.SetDefault("services.states_layer", defaults.Services.StatesLayer)
	v.SetDefault("geocoding.cache_size", defaults.Geocoding.CacheSize)
	v.SetDefault("geocoding.batch_size", defaults.Geocoding.BatchSize)
	v.SetDefault("proxy.host", defaults.Proxy.Host)
	v.SetDefault("proxy.port", defaults.Proxy.Port)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	v.SetDefault("map.output_file", defaults.Map.OutputFile)
	v.SetDefault("map.title", defaults.Map.Title)
	v.SetDefault("map.open_browser", defaults.Map.OpenBrowser)
}

func (c *Config) Validate() error {
	var errs []string

	for name, value := range map[string]string{
		"portal.url":            c.Portal.URL,
		"services.geocode":      c.Services.Geocode,
		"services.geometry":     c.Services.Geometry,
		"services.states_layer": c.Services.StatesLayer,
	} {
		parsedUrl, err := url.Parse(value)
		if err != nil || parsedUrl.Scheme == "" || parsedUrl.Host == "" {
			errs = append(errs, fmt.Sprintf("%s must be an absolute URL, got '%s'", name, value))
		}
	}
	if c.Portal.Username != "" && c.Portal.Password == "" {
		errs = append(errs, "portal.password is required when portal.username is set")
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("http.timeout must be positive, got %s", c.HTTP.Timeout))
	}
	if c.Geocoding.CacheSize < 0 {
		errs = append(errs, fmt.Sprintf("geocoding.cache_size must not be negative, got %d", c.Geocoding.CacheSize))
	}
	if c.Geocoding.BatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("geocoding.batch_size must be positive, got %d", c.Geocoding.BatchSize))
	}
	if c.Proxy.Host != "" {
		port, err := strconv.Atoi(c.Proxy.Port)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Sprintf("proxy.port must be 1-65535 when proxy.host is set, got '%s'", c.Proxy.Port))
		}
	}

	if len(errs) > 0 {
		// The URL checks iterate over a map.
		sort.Strings(errs)
		return errors.Errorf("Invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// HasCredentials is true when an authenticated session can be created.
func (c *Config) HasCredentials() bool {
	return c.Portal.APIKey != "" || (c.Portal.Username != "" && c.Portal.Password != "")
}

func (c *Config) PortalOptions() portal.Options {
	return portal.Options{
		URL:             c.Portal.URL,
		Username:        c.Portal.Username,
		Password:        c.Portal.Password,
		APIKey:          c.Portal.APIKey,
		TokenExpiration: c.Portal.TokenExpiration,
	}
}

// URL returns the proxy URL or nil when no proxy is configured.
func (p ProxyConfig) URL() (*url.URL, error) {
	if p.Host == "" {
		return nil, nil
	}

	host := p.Host
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if p.Port != "" {
		host += ":" + p.Port
	}

	proxyUrl, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid proxy %s", host)
	}
	return proxyUrl, nil
}
