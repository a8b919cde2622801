package geometry

import (
	"fmt"
	"github.com/pkg/errors"
)

type GeometryType int

const (
	GeometryTypeUnknown GeometryType = iota
	GeometryTypePoint
	GeometryTypeMultipoint
	GeometryTypePolyline
	GeometryTypePolygon
	GeometryTypeEnvelope
)

func (g GeometryType) String() string {
	switch g {
	case GeometryTypePoint:
		return "esriGeometryPoint"
	case GeometryTypeMultipoint:
		return "esriGeometryMultipoint"
	case GeometryTypePolyline:
		return "esriGeometryPolyline"
	case GeometryTypePolygon:
		return "esriGeometryPolygon"
	case GeometryTypeEnvelope:
		return "esriGeometryEnvelope"
	}
	return fmt.Sprintf("[!UNKNOWN GeometryType %d]", g)
}

func ParseGeometryType(s string) (GeometryType, error) {
	switch s {
	case "esriGeometryPoint":
		return GeometryTypePoint, nil
	case "esriGeometryMultipoint":
		return GeometryTypeMultipoint, nil
	case "esriGeometryPolyline":
		return GeometryTypePolyline, nil
	case "esriGeometryPolygon":
		return GeometryTypePolygon, nil
	case "esriGeometryEnvelope":
		return GeometryTypeEnvelope, nil
	}
	return GeometryTypeUnknown, errors.Errorf("Unknown geometry type '%s'", s)
}

func (g GeometryType) MarshalText() ([]byte, error) {
	if g == GeometryTypeUnknown {
		return []byte{}, nil
	}
	return []byte(g.String()), nil
}

// UnmarshalText accepts an empty string, which layers without geometry (tables) report.
func (g *GeometryType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*g = GeometryTypeUnknown
		return nil
	}

	parsed, err := ParseGeometryType(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// LinearUnit is the well-known ID of a linear unit as expected by the geometry service.
type LinearUnit int

const (
	Meters       LinearUnit = 9001
	Feet         LinearUnit = 9002
	Kilometers   LinearUnit = 9036
	StatuteMiles LinearUnit = 9093
)

func (u LinearUnit) String() string {
	switch u {
	case Meters:
		return "METERS"
	case Feet:
		return "FEET"
	case Kilometers:
		return "KILOMETERS"
	case StatuteMiles:
		return "MILES"
	}
	return fmt.Sprintf("[!UNKNOWN LinearUnit %d]", int(u))
}

// ParseLinearUnit parses unit names like "KILOMETERS" or "miles".
func ParseLinearUnit(s string) (LinearUnit, error) {
	switch s {
	case "METERS", "meters", "m":
		return Meters, nil
	case "FEET", "feet", "ft":
		return Feet, nil
	case "KILOMETERS", "kilometers", "km":
		return Kilometers, nil
	case "MILES", "miles", "mi":
		return StatuteMiles, nil
	}
	return 0, errors.Errorf("Unknown linear unit '%s'", s)
}

type AreaUnit string

const (
	SquareMeters     AreaUnit = "esriSquareMeters"
	SquareKilometers AreaUnit = "esriSquareKilometers"
	SquareMiles      AreaUnit = "esriSquareMiles"
	Acres            AreaUnit = "esriAcres"
	Hectares         AreaUnit = "esriHectares"
)

type Relation string

const (
	RelationCross                Relation = "esriGeometryRelationCross"
	RelationDisjoint             Relation = "esriGeometryRelationDisjoint"
	RelationIn                   Relation = "esriGeometryRelationIn"
	RelationInteriorIntersection Relation = "esriGeometryRelationInteriorIntersection"
	RelationIntersection         Relation = "esriGeometryRelationIntersection"
	RelationOverlap              Relation = "esriGeometryRelationOverlap"
	RelationTouch                Relation = "esriGeometryRelationTouch"
	RelationWithin               Relation = "esriGeometryRelationWithin"
)
