package feature

import (
	"arcgo/util"
	"encoding/json"
	"testing"
)

func TestFeature_Attr_firstExisting(t *testing.T) {
	// Arrange
	f := Feature{Attributes: map[string]any{"NAME": "California", "STATE_NAME": nil}}

	// Act
	value, ok := f.Attr("STATE_NAME", "NAME")

	// Assert
	util.AssertTrue(t, ok)
	util.AssertEqual(t, "California", value)
}

func TestFeature_Attr_missing(t *testing.T) {
	// Arrange
	f := Feature{Attributes: map[string]any{"POP2010": 37253956.0}}

	// Act
	value, ok := f.Attr("STATE_NAME", "NAME")

	// Assert
	util.AssertFalse(t, ok)
	util.AssertNil(t, value)
}

func TestFeature_String(t *testing.T) {
	// Arrange
	f := Feature{Attributes: map[string]any{
		"STATE_NAME": "Texas",
		"STATE_FIPS": 48.0,
		"SUB_REGION": true,
	}}

	// Act & Assert
	util.AssertEqual(t, "Texas", f.String("Unknown", "STATE_NAME", "NAME"))
	util.AssertEqual(t, "48", f.String("Unknown", "STATE_FIPS"))
	util.AssertEqual(t, "true", f.String("Unknown", "SUB_REGION"))
	util.AssertEqual(t, "Unknown", f.String("Unknown", "NAME"))
	util.AssertEqual(t, "Unknown", Feature{}.String("Unknown", "NAME"))
}

func TestFeature_Int(t *testing.T) {
	// Arrange
	f := Feature{Attributes: map[string]any{
		"POP2010":    37253956.0,
		"POP2020":    json.Number("39538223"),
		"AREA":       "423970",
		"HALF":       2.5,
		"STATE_ABBR": "CA",
	}}

	// Act & Assert
	value, ok := f.Int("POP2010")
	util.AssertTrue(t, ok)
	util.AssertEqual(t, int64(37253956), value)

	value, ok = f.Int("MISSING", "POP2020")
	util.AssertTrue(t, ok)
	util.AssertEqual(t, int64(39538223), value)

	value, ok = f.Int("AREA")
	util.AssertTrue(t, ok)
	util.AssertEqual(t, int64(423970), value)

	value, ok = f.Int("HALF")
	util.AssertTrue(t, ok)
	util.AssertEqual(t, int64(2), value)

	_, ok = f.Int("STATE_ABBR")
	util.AssertFalse(t, ok)

	_, ok = f.Int("MISSING")
	util.AssertFalse(t, ok)
}

func TestQuery_params_defaults(t *testing.T) {
	// Act
	params := Query{}.params()

	// Assert
	util.AssertEqual(t, "1=1", params.Get("where"))
	util.AssertEqual(t, "*", params.Get("outFields"))
	util.AssertEqual(t, "false", params.Get("returnGeometry"))
	util.AssertFalse(t, params.Has("resultRecordCount"))
	util.AssertFalse(t, params.Has("resultOffset"))
	util.AssertFalse(t, params.Has("orderByFields"))
	util.AssertFalse(t, params.Has("outSR"))
}

func TestQuery_params(t *testing.T) {
	// Arrange
	query := Query{
		Where:             "STATE_NAME IN ('California', 'Texas')",
		OutFields:         []string{"STATE_NAME", "POP2010"},
		ReturnGeometry:    true,
		ResultRecordCount: 5,
		ResultOffset:      10,
		OrderByFields:     "STATE_NAME ASC",
		OutSR:             4326,
	}

	// Act
	params := query.params()

	// Assert
	util.AssertEqual(t, "STATE_NAME IN ('California', 'Texas')", params.Get("where"))
	util.AssertEqual(t, "STATE_NAME,POP2010", params.Get("outFields"))
	util.AssertEqual(t, "true", params.Get("returnGeometry"))
	util.AssertEqual(t, "5", params.Get("resultRecordCount"))
	util.AssertEqual(t, "10", params.Get("resultOffset"))
	util.AssertEqual(t, "STATE_NAME ASC", params.Get("orderByFields"))
	util.AssertEqual(t, "4326", params.Get("outSR"))
}
