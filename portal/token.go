package portal

import (
	"arcgo/rest"
	"context"
	"github.com/hauke96/sigolo/v2"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// A token is renewed when it expires within this margin.
const tokenRefreshMargin = time.Minute

// passwordTokenSource generates tokens with username and password and renews them shortly before they expire.
type passwordTokenSource struct {
	mutex sync.Mutex

	client     *rest.Client
	tokenUrl   string
	username   string
	password   string
	expiration time.Duration
	clock      clockwork.Clock

	token   string
	expires time.Time
}

func newPasswordTokenSource(client *rest.Client, portalUrl string, username string, password string, expiration time.Duration, clock clockwork.Clock) *passwordTokenSource {
	return &passwordTokenSource{
		client:     client,
		tokenUrl:   portalUrl + "/sharing/rest/generateToken",
		username:   username,
		password:   password,
		expiration: expiration,
		clock:      clock,
	}
}

func (s *passwordTokenSource) Token(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.token != "" && s.clock.Now().Add(tokenRefreshMargin).Before(s.expires) {
		return s.token, nil
	}

	if s.token != "" {
		sigolo.Debugf("Token for %s expires at %s, renewing it", s.username, s.expires.Format(time.RFC3339))
	}

	err := s.generate(ctx)
	if err != nil {
		return "", err
	}
	return s.token, nil
}

func (s *passwordTokenSource) generate(ctx context.Context) error {
	params := url.Values{
		"username":   {s.username},
		"password":   {s.password},
		"expiration": {strconv.Itoa(int(s.expiration.Minutes()))},
	}
	if s.client.Referer() != "" {
		params.Set("client", "referer")
		params.Set("referer", s.client.Referer())
	} else {
		params.Set("client", "requestip")
	}

	var response struct {
		Token   string `json:"token"`
		Expires int64  `json:"expires"`
	}
	err := s.client.Post(ctx, s.tokenUrl, params, &response)
	if err != nil {
		return errors.Wrapf(err, "Unable to generate token for user %s", s.username)
	}

	if response.Token == "" {
		return &rest.ServiceError{
			Code:    rest.CodeInvalidToken,
			Message: "Token generation returned no token",
		}
	}

	s.token = response.Token
	if response.Expires > 0 {
		s.expires = time.UnixMilli(response.Expires)
	} else {
		s.expires = s.clock.Now().Add(s.expiration)
	}

	sigolo.Debugf("Generated token for %s valid until %s", s.username, s.expires.Format(time.RFC3339))
	return nil
}

// apiKey is a token source for API keys, which don't expire during a program run.
type apiKey string

func (k apiKey) Token(_ context.Context) (string, error) {
	return string(k), nil
}
