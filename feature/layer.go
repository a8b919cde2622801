package feature

import (
	"arcgo/geometry"
	"arcgo/rest"
	"context"
	"encoding/json"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const UsaStatesLayerURL = "https://services.arcgis.com/P3ePLMYs2RVChkJx/arcgis/rest/services/USA_States_Generalized/FeatureServer/0"

type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Alias string `json:"alias"`
}

type LayerProperties struct {
	Name           string                `json:"name"`
	Type           string                `json:"type"`
	GeometryType   geometry.GeometryType `json:"geometryType"`
	Fields         []Field               `json:"fields"`
	Extent         *geometry.Envelope    `json:"extent"`
	MaxRecordCount int                   `json:"maxRecordCount"`
	ObjectIdField  string                `json:"objectIdField"`
}

// Query describes a feature query. Empty values are left to the defaults of the service, except an empty where clause
// (all features) and empty out fields (all fields).
type Query struct {
	Where             string
	OutFields         []string
	ReturnGeometry    bool
	ResultRecordCount int
	ResultOffset      int
	OrderByFields     string
	OutSR             int
}

// Layer is a feature layer of a feature service. The layer properties are requested once and kept.
type Layer struct {
	url    string
	client *rest.Client

	mutex      sync.Mutex
	properties *LayerProperties
}

func NewLayer(layerUrl string, client *rest.Client) *Layer {
	return &Layer{
		url:    strings.TrimSuffix(layerUrl, "/"),
		client: client,
	}
}

func (l *Layer) URL() string {
	return l.url
}

func (l *Layer) Properties(ctx context.Context) (*LayerProperties, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.properties != nil {
		return l.properties, nil
	}

	properties := &LayerProperties{}
	err := l.client.Get(ctx, l.url, nil, properties)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read properties of layer %s", l.url)
	}

	sigolo.Debugf("Layer '%s' has %d fields and geometry type %s", properties.Name, len(properties.Fields), properties.GeometryType)
	l.properties = properties
	return properties, nil
}

type queryResponse struct {
	GeometryType          geometry.GeometryType     `json:"geometryType"`
	SpatialReference      geometry.SpatialReference `json:"spatialReference"`
	ExceededTransferLimit bool                      `json:"exceededTransferLimit"`
	Features              []struct {
		Attributes map[string]any  `json:"attributes"`
		Geometry   json.RawMessage `json:"geometry"`
	} `json:"features"`
}

func (l *Layer) Query(ctx context.Context, query Query) (*FeatureSet, error) {
	sigolo.Debugf("Query layer %s with where clause '%s'", l.url, whereOrAll(query.Where))
	queryStartTime := time.Now()

	var response queryResponse
	err := l.client.Get(ctx, l.url+"/query", query.params(), &response)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to query layer %s", l.url)
	}

	featureSet := &FeatureSet{
		GeometryType:          response.GeometryType,
		SpatialReference:      response.SpatialReference,
		Features:              make([]Feature, len(response.Features)),
		ExceededTransferLimit: response.ExceededTransferLimit,
	}

	for i, rawFeature := range response.Features {
		attributes := rawFeature.Attributes
		if attributes == nil {
			attributes = map[string]any{}
		}

		g, err := geometry.Decode(response.GeometryType, rawFeature.Geometry)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode geometry of feature %d", i)
		}

		featureSet.Features[i] = Feature{
			Attributes: attributes,
			Geometry:   geometry.WithDefaultSpatialReference(g, response.SpatialReference),
		}
		featureSet.Features[i].Print()
	}

	sigolo.Debugf("Queried %d features in %s", len(featureSet.Features), time.Since(queryStartTime))
	if featureSet.ExceededTransferLimit {
		sigolo.Warnf("Layer %s has more features than the %d returned", l.url, len(featureSet.Features))
	}

	return featureSet, nil
}

// Count returns the number of features matching the where clause. An empty where clause counts all features.
func (l *Layer) Count(ctx context.Context, where string) (int, error) {
	params := url.Values{
		"where":           {whereOrAll(where)},
		"returnCountOnly": {"true"},
	}

	var response struct {
		Count *int `json:"count"`
	}
	err := l.client.Get(ctx, l.url+"/query", params, &response)
	if err != nil {
		return 0, errors.Wrapf(err, "Unable to count features of layer %s", l.url)
	}
	if response.Count == nil {
		return 0, errors.Errorf("Response of layer %s contains no count", l.url)
	}

	return *response.Count, nil
}

func (q Query) params() url.Values {
	outFields := "*"
	if len(q.OutFields) > 0 {
		outFields = strings.Join(q.OutFields, ",")
	}

	params := url.Values{
		"where":          {whereOrAll(q.Where)},
		"outFields":      {outFields},
		"returnGeometry": {strconv.FormatBool(q.ReturnGeometry)},
	}
	if q.ResultRecordCount > 0 {
		params.Set("resultRecordCount", strconv.Itoa(q.ResultRecordCount))
	}
	if q.ResultOffset > 0 {
		params.Set("resultOffset", strconv.Itoa(q.ResultOffset))
	}
	if q.OrderByFields != "" {
		params.Set("orderByFields", q.OrderByFields)
	}
	if q.OutSR != 0 {
		params.Set("outSR", strconv.Itoa(q.OutSR))
	}

	return params
}

func whereOrAll(where string) string {
	if strings.TrimSpace(where) == "" {
		return "1=1"
	}
	return where
}
