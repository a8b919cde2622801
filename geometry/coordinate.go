package geometry

import (
	"encoding/json"
	"github.com/pkg/errors"
	"math"
	"strconv"
	"strings"
)

// coordinate is a float which ArcGIS services may send as number, as null or as the string "NaN" for empty geometries.
type coordinate float64

func (c coordinate) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(c))
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*c = coordinate(math.NaN())
		return nil
	}

	text = strings.Trim(text, "\"")
	if strings.EqualFold(text, "NaN") || text == "" {
		*c = coordinate(math.NaN())
		return nil
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return errors.Wrapf(err, "Invalid coordinate value %s", string(data))
	}
	*c = coordinate(value)
	return nil
}
