package model

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nocturne-works/dataport/gameerr"
)

// Axis bounds as defined by the location column type. Only decimals between
// 0000.000 and 9999.999 are accepted into the database.
var (
	MinCoordinate = decimal.Zero
	MaxCoordinate = decimal.RequireFromString("9999.999")
)

// Location is a three-axis coordinate with exact decimal axes. World-space and
// instance-space locations use the same type but are stored in separate
// columns and are never mixed arithmetically.
type Location struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
	Z decimal.Decimal `json:"z"`
}

// NewLocation validates the axes and returns a Location.
func NewLocation(x, y, z decimal.Decimal) (Location, error) {
	for _, axis := range []struct {
		name string
		v    decimal.Decimal
	}{{"x", x}, {"y", y}, {"z", z}} {
		if err := checkAxis(axis.name, axis.v); err != nil {
			return Location{}, err
		}
	}
	return Location{X: x, Y: y, Z: z}, nil
}

// ParseLocation parses three decimal strings into a Location.
func ParseLocation(x, y, z string) (Location, error) {
	axes := make([]decimal.Decimal, 3)
	for i, s := range []string{x, y, z} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Location{}, gameerr.New(gameerr.CodeValidation, "coordinate %q is not a decimal", s)
		}
		axes[i] = d
	}
	return NewLocation(axes[0], axes[1], axes[2])
}

func checkAxis(name string, v decimal.Decimal) error {
	if v.LessThan(MinCoordinate) || v.GreaterThan(MaxCoordinate) {
		return gameerr.New(gameerr.CodeValidation,
			"%s coordinate %s outside [%s, %s]", name, v, MinCoordinate, MaxCoordinate)
	}
	if !v.Equal(v.Truncate(3)) {
		return gameerr.New(gameerr.CodeValidation,
			"%s coordinate %s has more than three fractional digits", name, v)
	}
	return nil
}

// Equal reports component-wise equality (1.5 equals 1.500).
func (l Location) Equal(other Location) bool {
	return l.X.Equal(other.X) && l.Y.Equal(other.Y) && l.Z.Equal(other.Z)
}

func (l Location) String() string {
	return fmt.Sprintf("(%s,%s,%s)", l.X, l.Y, l.Z)
}

// Value serializes the location to its composite form "(x,y,z)".
func (l Location) Value() (driver.Value, error) {
	return l.String(), nil
}

// Scan parses the composite form back. The stored text is exact, so the
// round trip never loses precision.
func (l *Location) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("location: cannot scan %T", src)
	}
	raw = strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(raw), ")"), "(")
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return fmt.Errorf("location: malformed composite %q", src)
	}
	parsed, err := ParseLocation(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// GormDataType stores the composite form in a plain text column.
func (Location) GormDataType() string {
	return "varchar(64)"
}
