package config

import (
	"arcgo/util"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnvironment(t *testing.T) {
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	for _, env := range []string{"ARCGIS_HTTP_TIMEOUT", "ARCGIS_GEOCODING_BATCH_SIZE"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	// Arrange
	clearEnvironment(t)

	// Act
	cfg, err := Load(filepath.Join(t.TempDir(), "arcgo.yaml"))

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, Default(), *cfg)
	util.AssertFalse(t, cfg.HasCredentials())
}

func TestLoad_file(t *testing.T) {
	// Arrange
	clearEnvironment(t)
	path := filepath.Join(t.TempDir(), "arcgo.yaml")
	content := `
portal:
  username: jdoe
  password: secret
  token_expiration: 2h
geocoding:
  batch_size: 50
http:
  timeout: 5s
map:
  open_browser: false
`
	util.AssertNil(t, os.WriteFile(path, []byte(content), 0600))

	// Act
	cfg, err := Load(path)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, "jdoe", cfg.Portal.Username)
	util.AssertEqual(t, "secret", cfg.Portal.Password)
	util.AssertEqual(t, 2*time.Hour, cfg.Portal.TokenExpiration)
	util.AssertEqual(t, 50, cfg.Geocoding.BatchSize)
	util.AssertEqual(t, 5*time.Second, cfg.HTTP.Timeout)
	util.AssertFalse(t, cfg.Map.OpenBrowser)
	util.AssertEqual(t, Default().Portal.URL, cfg.Portal.URL)
	util.AssertTrue(t, cfg.HasCredentials())
}

func TestLoad_environmentOverridesFile(t *testing.T) {
	// Arrange
	clearEnvironment(t)
	path := filepath.Join(t.TempDir(), "arcgo.yaml")
	util.AssertNil(t, os.WriteFile(path, []byte("portal:\n  username: from-file\n  password: secret\n"), 0600))

	t.Setenv("ARCGIS_USERNAME", "from-env")
	t.Setenv("ARCGIS_API_KEY", "key")
	t.Setenv("ARCGIS_ORG_URL", "https://example.maps.arcgis.com")
	t.Setenv("PROXY_HOST", "proxy.local")
	t.Setenv("PROXY_PORT", "3128")
	t.Setenv("ARCGIS_HTTP_TIMEOUT", "10s")

	// Act
	cfg, err := Load(path)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, "from-env", cfg.Portal.Username)
	util.AssertEqual(t, "key", cfg.Portal.APIKey)
	util.AssertEqual(t, "https://example.maps.arcgis.com", cfg.Portal.URL)
	util.AssertEqual(t, "proxy.local", cfg.Proxy.Host)
	util.AssertEqual(t, "3128", cfg.Proxy.Port)
	util.AssertEqual(t, 10*time.Second, cfg.HTTP.Timeout)
}

func TestLoad_invalidFile(t *testing.T) {
	// Arrange
	clearEnvironment(t)
	path := filepath.Join(t.TempDir(), "arcgo.yaml")
	util.AssertNil(t, os.WriteFile(path, []byte("portal: [unclosed"), 0600))

	// Act
	cfg, err := Load(path)

	// Assert
	util.AssertNil(t, cfg)
	util.AssertNotNil(t, err)
}

func TestLoad_invalidValues(t *testing.T) {
	// Arrange
	clearEnvironment(t)
	t.Setenv("ARCGIS_GEOCODING_BATCH_SIZE", "0")

	// Act
	cfg, err := Load("")

	// Assert
	util.AssertNil(t, cfg)
	util.AssertNotNil(t, err)
	util.AssertContains(t, "geocoding.batch_size must be positive", err.Error())
}

func TestValidate(t *testing.T) {
	// Arrange
	cfg := Default()
	cfg.Portal.URL = "not a url"
	cfg.Portal.Username = "jdoe"
	cfg.HTTP.Timeout = 0
	cfg.Geocoding.CacheSize = -1
	cfg.Proxy.Host = "proxy.local"
	cfg.Proxy.Port = "abc"

	// Act
	err := cfg.Validate()

	// Assert
	util.AssertNotNil(t, err)
	message := err.Error()
	util.AssertTrue(t, strings.HasPrefix(message, "Invalid configuration:"))
	util.AssertContains(t, "portal.url must be an absolute URL, got 'not a url'", message)
	util.AssertContains(t, "portal.password is required when portal.username is set", message)
	util.AssertContains(t, "http.timeout must be positive", message)
	util.AssertContains(t, "geocoding.cache_size must not be negative", message)
	util.AssertContains(t, "proxy.port must be 1-65535 when proxy.host is set, got 'abc'", message)
}

func TestValidate_defaults(t *testing.T) {
	// Arrange
	cfg := Default()

	// Act & Assert
	util.AssertNil(t, cfg.Validate())
}

func TestHasCredentials(t *testing.T) {
	// Act & Assert
	util.AssertFalse(t, (&Config{Portal: PortalConfig{Username: "jdoe"}}).HasCredentials())
	util.AssertTrue(t, (&Config{Portal: PortalConfig{Username: "jdoe", Password: "secret"}}).HasCredentials())
	util.AssertTrue(t, (&Config{Portal: PortalConfig{APIKey: "key"}}).HasCredentials())
}

func TestProxyConfig_URL(t *testing.T) {
	// Act & Assert
	proxyUrl, err := ProxyConfig{}.URL()
	util.AssertNil(t, err)
	util.AssertNil(t, proxyUrl)

	proxyUrl, err = ProxyConfig{Host: "proxy.local", Port: "3128"}.URL()
	util.AssertNil(t, err)
	util.AssertEqual(t, "http://proxy.local:3128", proxyUrl.String())

	proxyUrl, err = ProxyConfig{Host: "https://proxy.local", Port: "8443"}.URL()
	util.AssertNil(t, err)
	util.AssertEqual(t, "https://proxy.local:8443", proxyUrl.String())
}

func TestWriteTemplate(t *testing.T) {
	// Arrange
	clearEnvironment(t)
	path := filepath.Join(t.TempDir(), "arcgo.yaml")

	// Act
	err := WriteTemplate(path)

	// Assert
	util.AssertNil(t, err)

	content, err := os.ReadFile(path)
	util.AssertNil(t, err)
	util.AssertContains(t, "# Do not commit this file to version control!", string(content))
	util.AssertContains(t, "username: \"\"", string(content))
	util.AssertContains(t, "token_expiration: 1h0m0s", string(content))
	util.AssertContains(t, "timeout: 30s", string(content))

	cfg, err := Load(path)
	util.AssertNil(t, err)
	util.AssertEqual(t, Default(), *cfg)
}

func TestWriteTemplate_doesNotOverwrite(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "arcgo.yaml")
	util.AssertNil(t, os.WriteFile(path, []byte("portal:\n  username: jdoe\n"), 0600))

	// Act
	err := WriteTemplate(path)

	// Assert
	util.AssertError(t, "Config file "+path+" already exists", err)
	content, _ := os.ReadFile(path)
	util.AssertEqual(t, "portal:\n  username: jdoe\n", string(content))
}
