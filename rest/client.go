package rest

import (
	"arcgo/metrics"
	"bytes"
	"context"
	"encoding/json"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// TokenSource provides the token appended to every request of an authenticated session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client performs requests against ArcGIS REST endpoints. Every request is sent with "f=json" and the response is
// checked for the error envelope ArcGIS services return with HTTP status 200.
type Client struct {
	httpClient  *http.Client
	referer     string
	tokenSource TokenSource
	metrics     *metrics.Metrics
}

func NewHTTPClient(timeout time.Duration, proxy *url.URL) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func NewClient(httpClient *http.Client, referer string, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		referer:    referer,
		metrics:    m,
	}
}

// WithToken returns a copy of the client which adds the token of the given source to each request.
func (c *Client) WithToken(tokenSource TokenSource) *Client {
	clone := *c
	clone.tokenSource = tokenSource
	return &clone
}

func (c *Client) HasToken() bool {
	return c.tokenSource != nil
}

func (c *Client) Referer() string {
	return c.referer
}

func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	values, err := c.prepareParams(ctx, params)
	if err != nil {
		return err
	}

	fullUrl := endpoint
	if strings.Contains(endpoint, "?") {
		fullUrl += "&" + values.Encode()
	} else {
		fullUrl += "?" + values.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GET request for %s", endpoint)
	}

	return c.do(request, endpoint, out)
}

// Post sends the parameters form-encoded. Used for requests whose parameters may exceed URL length limits, like batch
// geocoding or token generation where credentials must not end up in URLs.
func (c *Client) Post(ctx context.Context, endpoint string, params url.Values, out any) error {
	values, err := c.prepareParams(ctx, params)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return errors.Wrapf(err, "Unable to create POST request for %s", endpoint)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(request, endpoint, out)
}

func (c *Client) prepareParams(ctx context.Context, params url.Values) (url.Values, error) {
	values := url.Values{}
	for key, value := range params {
		values[key] = append([]string(nil), value...)
	}
	values.Set("f", "json")

	if c.tokenSource != nil {
		token, err := c.tokenSource.Token(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to get token for request")
		}
		values.Set("token", token)
	}

	return values, nil
}

func (c *Client) do(request *http.Request, endpoint string, out any) error {
	if c.referer != "" {
		request.Header.Set("Referer", c.referer)
	}

	endpointName := endpointLabel(endpoint)
	sigolo.Debugf("%s %s", request.Method, endpoint)
	startTime := time.Now()

	err := c.send(request, out)

	c.observe(endpointName, time.Since(startTime), err)
	if err != nil {
		return err
	}

	sigolo.Tracef("Request to %s finished in %s", endpoint, time.Since(startTime))
	return nil
}

func (c *Client) send(request *http.Request, out any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Wrapf(err, "Request to %s failed", request.URL.Redacted())
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "Unable to read response body")
	}

	if response.StatusCode != http.StatusOK {
		return &ServiceError{
			Code:    response.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}

	var envelope errorEnvelope
	if err = json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error
	}

	if out == nil {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	if err = decoder.Decode(out); err != nil {
		return errors.Wrap(err, "Unable to decode response")
	}

	return nil
}

func (c *Client) observe(endpoint string, duration time.Duration, err error) {
	if c.metrics == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.Requests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// endpointLabel turns ".../GeocodeServer/findAddressCandidates" into "findAddressCandidates" to keep the label
// cardinality low. Layer URLs end with the layer id, so they are labelled "layer".
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "unknown"
	}

	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" {
		return "root"
	}
	if strings.Trim(name, "0123456789") == "" {
		return "layer"
	}
	return name
}
