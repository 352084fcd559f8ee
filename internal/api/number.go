package api

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errNotANumber = errors.New("not an integer")

// number is an integer that also decodes from a JSON string, as form-based clients send select values as strings.
// Integral floats such as 2.0 or 1e1 are accepted; 2.5 is not.
type number int64

func (n *number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil && strings.HasPrefix(s, `"`) {
		s = strings.TrimSpace(unquoted)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = number(v)

		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	// 2^63 itself does not fit in an int64.
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= -math.MinInt64 {
		return fmt.Errorf("%w: %s", errNotANumber, b)
	}
	*n = number(f)

	return nil
}
