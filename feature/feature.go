package feature

import (
	"arcgo/geometry"
	"encoding/json"
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"math"
	"sort"
	"strconv"
)

// Feature is a record of a feature layer. The geometry is nil when the query didn't ask for geometries or when the
// layer is a table.
type Feature struct {
	Attributes map[string]any
	Geometry   geometry.Geometry
}

// Attr returns the value of the first of the given attributes that exists and isn't null.
func (f Feature) Attr(names ...string) (any, bool) {
	for _, name := range names {
		value, ok := f.Attributes[name]
		if ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// String returns the first existing attribute of the given names formatted as string or the fallback.
func (f Feature) String(fallback string, names ...string) string {
	value, ok := f.Attr(names...)
	if !ok {
		return fallback
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

// Int returns the first existing attribute of the given names as integer. Numbers with fraction are truncated. The
// second return value is false when no attribute exists or the value isn't a number.
func (f Feature) Int(names ...string) (int64, bool) {
	value, ok := f.Attr(names...)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		i, err := v.Int64()
		if err == nil {
			return i, true
		}
		floatValue, err := v.Float64()
		return int64(floatValue), err == nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func (f Feature) Print() {
	if !sigolo.ShouldLogTrace() {
		return
	}

	keys := make([]string, 0, len(f.Attributes))
	for key := range f.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sigolo.Tracef("Feature:")
	if f.Geometry != nil {
		sigolo.Tracef("  geometry=%s %v", f.Geometry.Type(), f.Geometry.Bound())
	}
	for _, key := range keys {
		sigolo.Tracef("  %s=%v", key, f.Attributes[key])
	}
}

// FeatureSet is the result of a query. The features are in the order the service returned them.
type FeatureSet struct {
	GeometryType     geometry.GeometryType
	SpatialReference geometry.SpatialReference
	Features         []Feature

	// True when the layer has more matching features than the service returned.
	ExceededTransferLimit bool
}
