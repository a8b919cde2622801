package demo

import (
	"arcgo/portal"
	"context"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

// Connection connects anonymously and, when credentials are configured, with authentication. Then public content is
// searched.
func (r *Runner) Connection(ctx context.Context) error {
	gis, err := r.anonymousConnection(ctx)
	if err != nil {
		return err
	}

	authenticated := r.authenticatedConnection(ctx)
	if authenticated != nil {
		gis = authenticated
	}

	err = r.searchPublicContent(ctx, gis)
	if err != nil {
		return err
	}

	r.completed()
	return nil
}

func (r *Runner) anonymousConnection(ctx context.Context) (*portal.GIS, error) {
	r.printf("Connecting to ArcGIS Online (anonymous)...\n")

	gis, err := portal.Connect(ctx, r.client, r.anonymousOptions())
	if err != nil {
		return nil, wrapConnectError(err)
	}

	r.printf("✓ Connected successfully!\n")
	r.printf("  Version: %s\n", gis.Version())
	r.printf("  URL: %s\n", gis.URL())
	r.printf("  User: %s\n", userName(gis))

	return gis, nil
}

// authenticatedConnection returns nil when no credentials are configured or the authentication failed.
func (r *Runner) authenticatedConnection(ctx context.Context) *portal.GIS {
	r.printf("\n")
	if !r.cfg.HasCredentials() {
		r.printf("Skipping authenticated connection (no credentials provided)\n")
		return nil
	}

	if r.cfg.Portal.APIKey != "" {
		r.printf("Connecting to ArcGIS Online with API key...\n")
	} else {
		r.printf("Connecting to ArcGIS Online as %s...\n", r.cfg.Portal.Username)
	}

	gis, err := portal.Connect(ctx, r.client, r.cfg.PortalOptions())
	if err != nil {
		sigolo.Errorf("Authentication failed: %+v", err)
		r.printf("✗ Authentication failed: %s\n", err)
		return nil
	}

	r.printf("✓ Authenticated successfully!\n")
	user := gis.User()
	if user == nil {
		r.printf("  User: %s\n", userName(gis))
		return gis
	}
	r.printf("  User: %s\n", user.Username)
	r.printf("  Full Name: %s\n", user.FullName)
	r.printf("  Role: %s\n", user.Role)

	return gis
}

func (r *Runner) searchPublicContent(ctx context.Context, gis *portal.GIS) error {
	r.printf("\nSearching for public COVID-19 maps...\n")

	items, err := gis.Search(ctx, "COVID-19", "Web Map", 5)
	if err != nil {
		return errors.Wrap(err, "Unable to search public content")
	}

	r.printf("Found %d items:\n", len(items))
	for i, item := range items {
		r.printf("  %d. %s\n", i+1, item.Title)
		r.printf("     Owner: %s\n", item.Owner)
		r.printf("     Views: %d\n", item.NumViews)
		r.printf("     URL: %s\n", item.Homepage())
		r.printf("\n")
	}

	return nil
}

func userName(gis *portal.GIS) string {
	if gis.User() != nil {
		return gis.User().Username
	}
	if gis.IsAnonymous() {
		return "Anonymous"
	}
	return "API key"
}
