package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// coerce converts v to t. Nulls never convert: the canonical schema carries
// no missing scalars.
func coerce(v any, t ColumnType) (any, error) {
	if v == nil {
		return nil, eris.New("null value")
	}
	switch t {
	case TypeString:
		return toString(v)
	case TypeInt:
		return toInt(v)
	case TypeFloat:
		return toFloat(v)
	default:
		return nil, eris.Errorf("unsupported type %q", t)
	}
}

func toString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return nil, eris.Errorf("unsupported source type %T", v)
	}
}

func toInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, eris.New("out of range")
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, eris.New("out of range")
		}
		return int64(x), nil
	case float32:
		return integralFloat(float64(x))
	case float64:
		return integralFloat(x)
	case string:
		return parseInt(x)
	case []byte:
		return parseInt(string(x))
	default:
		return nil, eris.Errorf("unsupported source type %T", v)
	}
}

func integralFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, eris.New("not an integer")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, eris.New("out of range")
	}
	return int64(f), nil
}

func parseInt(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, eris.Wrap(err, "parse int")
	}
	return n, nil
}

func toFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case bool:
		if x {
			return 1.0, nil
		}
		return 0.0, nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint, uint8, uint16, uint32, uint64:
		f, _ := strconv.ParseFloat(fmt.Sprint(x), 64)
		return f, nil
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	default:
		return nil, eris.Errorf("unsupported source type %T", v)
	}
}

func parseFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, eris.Wrap(err, "parse float")
	}
	return finite(f)
}

// finite rejects NaN and infinities; figure documents are JSON and cannot
// carry them.
func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, eris.New("not a finite number")
	}
	return f, nil
}
