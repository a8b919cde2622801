package rest

import (
	"arcgo/metrics"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokenSource string

func (s staticTokenSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}

type failingTokenSource struct{}

func (failingTokenSource) Token(_ context.Context) (string, error) {
	return "", errors.New("token expired")
}

func testClient(m *metrics.Metrics) *Client {
	return NewClient(&http.Client{Timeout: 5 * time.Second}, "arcgo-test", m)
}

func TestClient_Get_AddsFormatAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "json", r.URL.Query().Get("f"))
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		assert.Equal(t, "COVID-19", r.URL.Query().Get("q"))
		assert.Equal(t, "arcgo-test", r.Header.Get("Referer"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]int{"total": 3}))
	}))
	defer srv.Close()

	c := testClient(metrics.NewForTesting()).WithToken(staticTokenSource("secret"))

	var out struct {
		Total int `json:"total"`
	}
	err := c.Get(context.Background(), srv.URL+"/sharing/rest/search", url.Values{"q": {"COVID-19"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
}

func TestClient_Get_DoesNotModifyParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	params := url.Values{"where": {"1=1"}}
	err := testClient(nil).Get(context.Background(), srv.URL+"/query", params, nil)
	require.NoError(t, err)

	assert.Equal(t, url.Values{"where": {"1=1"}}, params)
}

func TestClient_Post_SendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "user", r.PostForm.Get("username"))
		assert.Equal(t, "json", r.PostForm.Get("f"))
		assert.Empty(t, r.URL.RawQuery)

		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	var out struct {
		Token string `json:"token"`
	}
	err := testClient(nil).Post(context.Background(), srv.URL+"/generateToken", url.Values{"username": {"user"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.Token)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":498,"message":"Invalid token.","details":[]}}`))
	}))
	defer srv.Close()

	m := metrics.NewForTesting()
	err := testClient(m).Get(context.Background(), srv.URL+"/arcgis/rest/services/States/FeatureServer/0/query", nil, &struct{}{})
	require.Error(t, err)

	var serviceError *ServiceError
	require.True(t, errors.As(err, &serviceError))
	assert.Equal(t, CodeInvalidToken, serviceError.Code)
	assert.Equal(t, "Invalid token.", serviceError.Message)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("query", "error")))
}

func TestClient_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
	}))
	defer srv.Close()

	err := testClient(nil).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.True(t, IsAuthError(err))
}

func TestClient_TokenSourceFailure(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	err := testClient(nil).WithToken(failingTokenSource{}).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
	assert.False(t, called)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient(nil).Get(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_WithToken_KeepsOriginalAnonymous(t *testing.T) {
	anonymous := testClient(nil)
	authenticated := anonymous.WithToken(staticTokenSource("secret"))

	assert.False(t, anonymous.HasToken())
	assert.True(t, authenticated.HasToken())
	assert.Equal(t, "arcgo-test", authenticated.Referer())
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "findAddressCandidates", endpointLabel("https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"))
	assert.Equal(t, "layer", endpointLabel("https://services.arcgis.com/x/arcgis/rest/services/States/FeatureServer/0"))
	assert.Equal(t, "query", endpointLabel("https://services.arcgis.com/x/arcgis/rest/services/States/FeatureServer/0/query"))
	assert.Equal(t, "root", endpointLabel("https://www.arcgis.com/"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&ServiceError{Code: 400, Message: "Cannot perform query.", Details: []string{"Unable to find address for the specified location."}}))
	assert.True(t, IsNotFound(errors.Wrap(&ServiceError{Code: 404}, "wrapped")))
	assert.False(t, IsNotFound(&ServiceError{Code: 500}))
	assert.False(t, IsNotFound(errors.New("plain")))
}
