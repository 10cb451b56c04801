package docking

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Center is a Cartesian point in Ångström.
type Center [3]float64

// X, Y and Z return the coordinates.
func (c Center) X() float64 { return c[0] }
func (c Center) Y() float64 { return c[1] }
func (c Center) Z() float64 { return c[2] }

// String renders the center as "(x, y, z)" using the shortest representation
// that parses back to the same float64.  Integral values keep a ".0" suffix.
func (c Center) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range c {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatFloat(v))
	}
	sb.WriteByte(')')
	return sb.String()
}

// FormatFloat renders v in its shortest round-trip form, keeping a ".0"
// suffix on integral values.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ParseCenter parses "(x, y, z)" or "[x, y, z]" back into a Center.
func ParseCenter(s string) (Center, error) {
	var c Center
	t := strings.TrimSpace(s)
	if len(t) < 2 {
		return c, apperrors.Newf(apperrors.ErrCodeCenterParse, "invalid center %q", s)
	}
	open, close := t[0], t[len(t)-1]
	if !(open == '(' && close == ')') && !(open == '[' && close == ']') {
		return c, apperrors.Newf(apperrors.ErrCodeCenterParse, "invalid center %q", s)
	}
	parts := strings.Split(t[1:len(t)-1], ",")
	if len(parts) != 3 {
		return c, apperrors.Newf(apperrors.ErrCodeCenterParse, "center %q must have 3 coordinates", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return c, apperrors.Wrap(err, apperrors.ErrCodeCenterParse, "invalid coordinate in center "+strconv.Quote(s))
		}
		c[i] = v
	}
	return c, nil
}

//Personal.AI order the ending
