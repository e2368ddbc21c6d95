package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// floatTolerance is the maximum difference under which two numeric values
// are considered equal.
const floatTolerance = 0.001

// Detector decides whether a desired payload differs meaningfully from the
// current target record. Comparison is type-normalized so representational
// differences (trimmed strings, "1" vs true, 2 vs 2.0) do not trigger
// spurious updates.
type Detector struct {
	tolerance float64
}

// NewDetector creates a detector with the default numeric tolerance.
func NewDetector() *Detector {
	return &Detector{tolerance: floatTolerance}
}

// HasChanges reports whether any payload field outside the ignore list
// differs from the target record. It short-circuits on the first difference.
// Fields present on the target but absent from the payload are not compared;
// the payload defines what the source cares about.
func (d *Detector) HasChanges(desired map[string]any, current map[string]any, ignore []string) bool {
	ignored := make(map[string]struct{}, len(ignore))
	for _, f := range ignore {
		ignored[f] = struct{}{}
	}

	for field, want := range desired {
		if _, skip := ignored[field]; skip {
			continue
		}
		got, ok := current[field]
		if !ok {
			if isEmpty(want) {
				continue
			}
			return true
		}
		if !d.equal(want, got) {
			return true
		}
	}
	return false
}

// equal compares two values after normalization.
func (d *Detector) equal(a, b any) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}

	if fa, aok := asFloat(a); aok {
		if fb, bok := asFloat(b); bok {
			return math.Abs(fa-fb) <= d.tolerance
		}
	}

	if ba, aok := a.(bool); aok {
		return ba == asBool(b)
	}
	if bb, bok := b.(bool); bok {
		return asBool(a) == bb
	}

	if ma, aok := toMap(a); aok {
		mb, bok := toMap(b)
		if !bok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !d.equal(va, vb) {
				return false
			}
		}
		return true
	}

	if sa, aok := toSlice(a); aok {
		sb, bok := toSlice(b)
		if !bok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !d.equal(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}

	return asString(a) == asString(b)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return strings.TrimSpace(string(t)) == ""
	default:
		return false
	}
}

// asFloat reports whether v is numeric, parsing numeric strings strictly.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	case []byte:
		s := string(t)
		return s == "1" || strings.EqualFold(s, "true")
	case int, int64, int32, float64, float32:
		f, _ := asFloat(t)
		return f == 1
	default:
		return false
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func toMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func toSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}
