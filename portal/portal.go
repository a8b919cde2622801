package portal

import (
	"arcgo/rest"
	"context"
	"encoding/json"
	"github.com/hauke96/sigolo/v2"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultURL             = "https://www.arcgis.com"
	DefaultTokenExpiration = 60 * time.Minute
)

type Options struct {
	URL             string
	Username        string
	Password        string
	APIKey          string
	TokenExpiration time.Duration
	Clock           clockwork.Clock
}

type User struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// GIS is a session with an ArcGIS portal. Anonymous sessions have no user and can only access public content.
type GIS struct {
	url     string
	version string
	user    *User
	client  *rest.Client
}

// Connect creates a session. Without credentials the session is anonymous. With an API key, that key is used as
// token. With username and password a token is generated, which fails with an authentication error when the
// credentials are wrong.
func Connect(ctx context.Context, client *rest.Client, options Options) (*GIS, error) {
	portalUrl := strings.TrimSuffix(options.URL, "/")
	if portalUrl == "" {
		portalUrl = DefaultURL
	}

	gis := &GIS{
		url:    portalUrl,
		client: client,
	}

	switch {
	case options.APIKey != "":
		sigolo.Debugf("Connect to %s with API key", portalUrl)
		gis.client = client.WithToken(apiKey(options.APIKey))
	case options.Username != "":
		if options.Password == "" {
			return nil, errors.Errorf("No password given for user %s", options.Username)
		}

		expiration := options.TokenExpiration
		if expiration <= 0 {
			expiration = DefaultTokenExpiration
		}
		clock := options.Clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}

		sigolo.Debugf("Connect to %s as %s", portalUrl, options.Username)
		tokenSource := newPasswordTokenSource(client, portalUrl, options.Username, options.Password, expiration, clock)
		_, err := tokenSource.Token(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to authenticate as %s", options.Username)
		}
		gis.client = client.WithToken(tokenSource)
	default:
		sigolo.Debugf("Connect to %s anonymously", portalUrl)
	}

	var info struct {
		CurrentVersion json.RawMessage `json:"currentVersion"`
	}
	err := gis.client.Get(ctx, portalUrl+"/sharing/rest", nil, &info)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to connect to portal %s", portalUrl)
	}
	gis.version = strings.Trim(string(info.CurrentVersion), "\"")

	if gis.IsAnonymous() {
		return gis, nil
	}

	user := &User{}
	err = gis.client.Get(ctx, portalUrl+"/sharing/rest/community/self", nil, user)
	if err != nil {
		if options.APIKey == "" {
			return nil, errors.Wrap(err, "Unable to read user information")
		}
		// API keys are not always allowed to read user information.
		sigolo.Warnf("Unable to read user information for API key: %+v", err)
		user = nil
	}
	gis.user = user

	return gis, nil
}

func (g *GIS) URL() string {
	return g.url
}

func (g *GIS) Version() string {
	return g.version
}

// User returns the signed in user or nil for anonymous sessions.
func (g *GIS) User() *User {
	return g.user
}

// Client returns the REST client of this session. For authenticated sessions it adds the token to every request.
func (g *GIS) Client() *rest.Client {
	return g.client
}

func (g *GIS) IsAnonymous() bool {
	return !g.client.HasToken()
}

type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Owner    string `json:"owner"`
	Type     string `json:"type"`
	NumViews int    `json:"numViews"`
	URL      string `json:"url"`

	portalUrl string
}

// Homepage returns the URL of the item page on the portal.
func (i Item) Homepage() string {
	return i.portalUrl + "/home/item.html?id=" + url.QueryEscape(i.ID)
}

// Search returns at most maxItems items matching the query. An empty item type searches for all types.
func (g *GIS) Search(ctx context.Context, query string, itemType string, maxItems int) ([]Item, error) {
	q := query
	if itemType != "" {
		q += " type:\"" + portalItemType(itemType) + "\""
	}

	params := url.Values{
		"q":   {strings.TrimSpace(q)},
		"num": {strconv.Itoa(maxItems)},
	}

	var response struct {
		Total   int    `json:"total"`
		Results []Item `json:"results"`
	}
	err := g.client.Get(ctx, g.url+"/sharing/rest/search", params, &response)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to search for '%s'", q)
	}

	sigolo.Debugf("Search '%s' found %d items in total", q, response.Total)

	items := response.Results
	if maxItems >= 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	for i := range items {
		items[i].portalUrl = g.url
	}

	return items, nil
}

// portalItemType maps layer types to the item types the portal stores. Feature layers are published as feature services.
func portalItemType(itemType string) string {
	if itemType == "Feature Layer" {
		return "Feature Service"
	}
	return itemType
}
