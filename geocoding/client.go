package geocoding

import (
	"arcgo/geometry"
	"arcgo/rest"
	"context"
	"encoding/json"
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	batchStatusUnmatched = "U"
	candidateOutFields   = "Match_addr,Addr_type,City,Region,Country"
)

// Client implements Geocoder with the ArcGIS World Geocoding Service.
type Client struct {
	url       string
	client    *rest.Client
	batchSize int
}

func NewClient(serviceUrl string, client *rest.Client, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Client{
		url:       strings.TrimSuffix(serviceUrl, "/"),
		client:    client,
		batchSize: batchSize,
	}
}

func (c *Client) Geocode(ctx context.Context, address string, maxLocations int) ([]Candidate, error) {
	if strings.TrimSpace(address) == "" {
		return []Candidate{}, nil
	}

	params := url.Values{
		"SingleLine":   {address},
		"maxLocations": {strconv.Itoa(maxLocations)},
		"outFields":    {candidateOutFields},
		"outSR":        {strconv.Itoa(geometry.WKIDWGS84)},
	}

	var response struct {
		SpatialReference geometry.SpatialReference `json:"spatialReference"`
		Candidates       []Candidate               `json:"candidates"`
	}
	err := c.client.Get(ctx, c.url+"/findAddressCandidates", params, &response)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to geocode '%s'", address)
	}

	candidates := make([]Candidate, 0, len(response.Candidates))
	for _, candidate := range response.Candidates {
		if candidate.Location.IsEmpty() {
			continue
		}
		candidate.Location.SR = spatialReferenceOrWGS84(candidate.Location.SR, response.SpatialReference)
		candidates = append(candidates, candidate)
	}

	if maxLocations > 0 && len(candidates) > maxLocations {
		candidates = candidates[:maxLocations]
	}

	sigolo.Debugf("Found %d candidates for '%s'", len(candidates), address)
	return candidates, nil
}

func (c *Client) ReverseGeocode(ctx context.Context, location geometry.Point) (*Address, error) {
	locationParam, err := reverseLocationParam(location)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"location": {locationParam},
		"outSR":    {strconv.Itoa(geometry.WKIDWGS84)},
	}

	var response struct {
		Address  *Address       `json:"address"`
		Location geometry.Point `json:"location"`
	}
	// Stays empty when the response has no location.
	response.Location = geometry.NewPoint(math.NaN(), math.NaN(), 0)
	err = c.client.Get(ctx, c.url+"/reverseGeocode", params, &response)
	if rest.IsNotFound(err) {
		sigolo.Debugf("No address found at %v", location.Point)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to reverse geocode %v", location.Point)
	}

	if response.Address == nil {
		return nil, nil
	}

	response.Address.Location = response.Location
	response.Address.Location.SR = spatialReferenceOrWGS84(response.Location.SR, geometry.SpatialReference{})
	return response.Address, nil
}

// BatchGeocode uses the native batch operation for authenticated sessions. Anonymous sessions aren't allowed to use
// it, so each address is geocoded on its own. Entries that fail are logged and reported as not found.
func (c *Client) BatchGeocode(ctx context.Context, addresses []string) ([]BatchResult, error) {
	results := notFound(addresses)
	if len(addresses) == 0 {
		return results, nil
	}

	if !c.client.HasToken() {
		sigolo.Debugf("Anonymous session, geocode %d addresses one by one", len(addresses))
		return c.sequentialBatchGeocode(ctx, addresses, results)
	}

	for start := 0; start < len(addresses); start += c.batchSize {
		end := min(start+c.batchSize, len(addresses))

		err := c.geocodeAddresses(ctx, addresses, start, end, results)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			sigolo.Errorf("Batch geocoding of addresses %d to %d failed: %+v", start+1, end, err)
		}
	}

	return results, nil
}

func (c *Client) sequentialBatchGeocode(ctx context.Context, addresses []string, results []BatchResult) ([]BatchResult, error) {
	for i, address := range addresses {
		candidates, err := c.Geocode(ctx, address, 1)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			sigolo.Errorf("Geocoding of address %d '%s' failed: %+v", i+1, address, err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		results[i].Found = true
		results[i].Candidate = candidates[0]
	}

	return results, nil
}

type batchRecord struct {
	Attributes batchRecordAttributes `json:"attributes"`
}

type batchRecordAttributes struct {
	ObjectID   int    `json:"OBJECTID"`
	SingleLine string `json:"SingleLine"`
}

// geocodeAddresses geocodes the addresses in [start, end) and stores them in the results. Records are identified by
// their index within the input, which the service returns as ResultID.
func (c *Client) geocodeAddresses(ctx context.Context, addresses []string, start int, end int, results []BatchResult) error {
	records := make([]batchRecord, 0, end-start)
	for i := start; i < end; i++ {
		if strings.TrimSpace(addresses[i]) == "" {
			continue
		}
		records = append(records, batchRecord{Attributes: batchRecordAttributes{ObjectID: i, SingleLine: addresses[i]}})
	}
	if len(records) == 0 {
		return nil
	}

	addressesJson, err := json.Marshal(map[string][]batchRecord{"records": records})
	if err != nil {
		return errors.Wrap(err, "Unable to encode batch records")
	}

	params := url.Values{
		"addresses": {string(addressesJson)},
		"outSR":     {strconv.Itoa(geometry.WKIDWGS84)},
	}

	var response struct {
		SpatialReference geometry.SpatialReference `json:"spatialReference"`
		Locations        []Candidate               `json:"locations"`
	}
	err = c.client.Post(ctx, c.url+"/geocodeAddresses", params, &response)
	if err != nil {
		return errors.Wrap(err, "Unable to batch geocode")
	}

	for _, location := range response.Locations {
		index, ok := resultId(location.Attributes)
		if !ok || index < start || index >= end {
			sigolo.Warnf("Ignore batch result with unknown result ID %v", location.Attributes["ResultID"])
			continue
		}

		if fmt.Sprint(location.Attributes["Status"]) == batchStatusUnmatched || location.Location.IsEmpty() {
			sigolo.Debugf("No match for address %d '%s'", index+1, addresses[index])
			continue
		}

		location.Location.SR = spatialReferenceOrWGS84(location.Location.SR, response.SpatialReference)
		results[index].Found = true
		results[index].Candidate = location
	}

	return nil
}

func resultId(attributes map[string]any) (int, bool) {
	switch id := attributes["ResultID"].(type) {
	case float64:
		if id != math.Trunc(id) {
			return 0, false
		}
		return int(id), true
	case string:
		parsed, err := strconv.Atoi(id)
		return parsed, err == nil
	}
	return 0, false
}

func reverseLocationParam(location geometry.Point) (string, error) {
	if location.IsEmpty() {
		return "", errors.New("Unable to reverse geocode an empty location")
	}

	wkid := location.SR.WKID
	if wkid == 0 || wkid == geometry.WKIDWGS84 {
		return strconv.FormatFloat(location.X(), 'f', -1, 64) + "," + strconv.FormatFloat(location.Y(), 'f', -1, 64), nil
	}

	data, err := json.Marshal(location)
	if err != nil {
		return "", errors.Wrap(err, "Unable to encode location")
	}
	return string(data), nil
}

// spatialReferenceOrWGS84 returns the first non-empty spatial reference. Locations without one are in WGS84 since all
// requests ask for outSR=4326.
func spatialReferenceOrWGS84(refs ...geometry.SpatialReference) geometry.SpatialReference {
	for _, ref := range refs {
		if ref.WKID != 0 {
			return ref
		}
	}
	return geometry.WGS84
}
