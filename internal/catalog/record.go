package catalog

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Record is one catalog entry exactly as loaded. Besides id, popularityScore
// and weight it may carry any display fields (name, images, ...), which are
// passed through to the priced output untouched.
type Record map[string]any

const (
	fieldID         = "id"
	fieldName       = "name"
	fieldPopularity = "popularityScore"
	fieldWeight     = "weight"
	fieldPrice      = "price"
)

var recordNamespace = uuid.MustParse("5b0c5a36-4f6e-4d8e-9a53-2c4f0b6a1e77")

func (r Record) ID() string {
	switch v := r[fieldID].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

// Number returns a numeric field. ok is false when the field is absent or not a number.
func (r Record) Number(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func (r Record) clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// assignIDs gives every record without an id a stable one derived from its
// position and name, so the same file always yields the same ids.
func assignIDs(records []Record) {
	for i, r := range records {
		if r.ID() != "" {
			continue
		}
		name := fmt.Sprint(r[fieldName])
		r[fieldID] = uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%d/%s", i, name))).String()
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
