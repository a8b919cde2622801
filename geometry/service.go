package geometry

import (
	"arcgo/rest"
	"context"
	"encoding/json"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"net/url"
	"strconv"
	"strings"
)

const DefaultServiceURL = "https://utility.arcgisonline.com/arcgis/rest/services/Geometry/GeometryServer"

// Service performs geodesic operations on a remote ArcGIS geometry server.
type Service struct {
	url    string
	client *rest.Client
}

type RelationPair struct {
	Geometry1Index int `json:"geometry1Index"`
	Geometry2Index int `json:"geometry2Index"`
}

func NewService(serviceUrl string, client *rest.Client) *Service {
	return &Service{
		url:    strings.TrimSuffix(serviceUrl, "/"),
		client: client,
	}
}

// Distance returns the geodesic distance between the two geometries in the given unit.
func (s *Service) Distance(ctx context.Context, a Geometry, b Geometry, unit LinearUnit) (float64, error) {
	geometry1, err := encodeTypedGeometry(a)
	if err != nil {
		return 0, err
	}
	geometry2, err := encodeTypedGeometry(b)
	if err != nil {
		return 0, err
	}

	params := url.Values{
		"geometry1":    {geometry1},
		"geometry2":    {geometry2},
		"sr":           {spatialReferenceParam(a)},
		"distanceUnit": {strconv.Itoa(int(unit))},
		"geodesic":     {"true"},
	}

	var response struct {
		Distance float64 `json:"distance"`
	}
	err = s.client.Get(ctx, s.url+"/distance", params, &response)
	if err != nil {
		return 0, errors.Wrap(err, "Unable to calculate distance")
	}

	sigolo.Debugf("Distance between %v and %v: %f %s", a.Orb(), b.Orb(), response.Distance, unit)
	return response.Distance, nil
}

// Areas returns the geodesic area of each polygon in the given unit. The order of the result matches the input.
func (s *Service) Areas(ctx context.Context, polygons []Polygon, unit AreaUnit) ([]float64, error) {
	if len(polygons) == 0 {
		return []float64{}, nil
	}

	polygonJson, err := json.Marshal(polygons)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode polygons")
	}

	areaUnitJson, err := json.Marshal(map[string]AreaUnit{"areaUnit": unit})
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode area unit")
	}

	params := url.Values{
		"polygons":        {string(polygonJson)},
		"sr":              {spatialReferenceParam(polygons[0])},
		"areaUnit":        {string(areaUnitJson)},
		"lengthUnit":      {strconv.Itoa(int(Kilometers))},
		"calculationType": {"geodesic"},
	}

	var response struct {
		Areas   []float64 `json:"areas"`
		Lengths []float64 `json:"lengths"`
	}
	err = s.client.Post(ctx, s.url+"/areasAndLengths", params, &response)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to calculate areas")
	}

	if len(response.Areas) != len(polygons) {
		return nil, errors.Errorf("Expected %d areas but service returned %d", len(polygons), len(response.Areas))
	}

	return response.Areas, nil
}

// Lengths returns the geodesic length of each polyline in the given unit.
func (s *Service) Lengths(ctx context.Context, polylines []Polyline, unit LinearUnit) ([]float64, error) {
	if len(polylines) == 0 {
		return []float64{}, nil
	}

	polylineJson, err := json.Marshal(polylines)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode polylines")
	}

	params := url.Values{
		"polylines":       {string(polylineJson)},
		"sr":              {spatialReferenceParam(polylines[0])},
		"lengthUnit":      {strconv.Itoa(int(unit))},
		"calculationType": {"geodesic"},
	}

	var response struct {
		Lengths []float64 `json:"lengths"`
	}
	err = s.client.Post(ctx, s.url+"/lengths", params, &response)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to calculate lengths")
	}

	if len(response.Lengths) != len(polylines) {
		return nil, errors.Errorf("Expected %d lengths but service returned %d", len(polylines), len(response.Lengths))
	}

	return response.Lengths, nil
}

// Buffer creates a geodesic buffer polygon with the given distance around each point.
func (s *Service) Buffer(ctx context.Context, points []Point, distance float64, unit LinearUnit) ([]Polygon, error) {
	if len(points) == 0 {
		return []Polygon{}, nil
	}

	geometries := make([]Geometry, len(points))
	for i, point := range points {
		geometries[i] = point
	}
	geometriesParam, err := encodeGeometries(geometries)
	if err != nil {
		return nil, err
	}

	sr := spatialReferenceParam(points[0])
	params := url.Values{
		"geometries":   {geometriesParam},
		"inSR":         {sr},
		"outSR":        {sr},
		"distances":    {strconv.FormatFloat(distance, 'f', -1, 64)},
		"unit":         {strconv.Itoa(int(unit))},
		"geodesic":     {"true"},
		"unionResults": {"false"},
	}

	var response struct {
		Geometries []Polygon `json:"geometries"`
	}
	err = s.client.Post(ctx, s.url+"/buffer", params, &response)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create buffer")
	}

	for i := range response.Geometries {
		if response.Geometries[i].SR.WKID == 0 {
			response.Geometries[i].SR = points[0].SR
		}
	}

	return response.Geometries, nil
}

// Relation returns all pairs of geometries (one of each list) for which the relation holds. All geometries of a list
// must have the same type.
func (s *Service) Relation(ctx context.Context, geometries1 []Geometry, geometries2 []Geometry, relation Relation) ([]RelationPair, error) {
	if len(geometries1) == 0 || len(geometries2) == 0 {
		return []RelationPair{}, nil
	}

	geometries1Param, err := encodeGeometries(geometries1)
	if err != nil {
		return nil, err
	}
	geometries2Param, err := encodeGeometries(geometries2)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"geometries1": {geometries1Param},
		"geometries2": {geometries2Param},
		"sr":          {spatialReferenceParam(geometries1[0])},
		"relation":    {string(relation)},
	}

	var response struct {
		Relations []RelationPair `json:"relations"`
	}
	err = s.client.Post(ctx, s.url+"/relation", params, &response)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to determine relation %s", relation)
	}

	return response.Relations, nil
}

func (s *Service) Within(ctx context.Context, inner Geometry, outer Geometry) (bool, error) {
	return s.holds(ctx, inner, outer, RelationWithin)
}

func (s *Service) Intersects(ctx context.Context, a Geometry, b Geometry) (bool, error) {
	return s.holds(ctx, a, b, RelationIntersection)
}

func (s *Service) holds(ctx context.Context, a Geometry, b Geometry, relation Relation) (bool, error) {
	pairs, err := s.Relation(ctx, []Geometry{a}, []Geometry{b}, relation)
	if err != nil {
		return false, err
	}
	return len(pairs) > 0, nil
}

// encodeTypedGeometry creates the {"geometryType": ..., "geometry": {...}} object used by the distance operation.
func encodeTypedGeometry(g Geometry) (string, error) {
	data, err := json.Marshal(struct {
		GeometryType GeometryType `json:"geometryType"`
		Geometry     Geometry     `json:"geometry"`
	}{g.Type(), g})
	if err != nil {
		return "", errors.Wrapf(err, "Unable to encode %s", g.Type())
	}
	return string(data), nil
}

// encodeGeometries creates the {"geometryType": ..., "geometries": [...]} object used by most operations.
func encodeGeometries(geometries []Geometry) (string, error) {
	geometryType := geometries[0].Type()
	for i, g := range geometries {
		if g.Type() != geometryType {
			return "", errors.Errorf("Geometry %d is a %s but expected %s", i, g.Type(), geometryType)
		}
	}

	data, err := json.Marshal(struct {
		GeometryType GeometryType `json:"geometryType"`
		Geometries   []Geometry   `json:"geometries"`
	}{geometryType, geometries})
	if err != nil {
		return "", errors.Wrapf(err, "Unable to encode geometries of type %s", geometryType)
	}
	return string(data), nil
}

func spatialReferenceParam(g Geometry) string {
	wkid := g.SpatialRef().WKID
	if wkid == 0 {
		wkid = WKIDWGS84
	}
	return strconv.Itoa(wkid)
}
