package plan

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Models do not always respect the requested JSON types. Card values never
// fail to decode: a plan is only rejected for its overall shape, never for
// one odd field.

var numericPrefix = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)`)

// Number decodes a JSON number or a string that starts with one, such as
// "80g". Anything else decodes to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(numberOf(data))
	return nil
}

// Int is a Number rounded to the nearest integer.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int(math.Round(numberOf(data)))
	return nil
}

// Text decodes any JSON value as display text: strings as is, numbers and
// booleans as written, arrays joined with ", ". Objects and null are empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(textOf(data))
	return nil
}

// Scalar keeps a JSON string or number exactly as the model wrote it, so
// both 3 and "3-4" reach the client unchanged.
type Scalar struct {
	raw json.RawMessage
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	d := bytes.TrimSpace(data)
	s.raw = nil
	switch {
	case len(d) == 0 || isNull(d):
	case d[0] == '"' || d[0] == '-' || (d[0] >= '0' && d[0] <= '9'):
		s.raw = append(json.RawMessage(nil), d...)
	default:
		if text := textOf(d); text != "" {
			s.raw, _ = json.Marshal(text)
		}
	}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if len(s.raw) == 0 {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// String returns the value as text.
func (s Scalar) String() string {
	return textOf(s.raw)
}

func numberOf(data []byte) float64 {
	d := bytes.TrimSpace(data)
	if len(d) == 0 {
		return 0
	}
	switch {
	case d[0] == '"':
		var s string
		if json.Unmarshal(d, &s) != nil {
			return 0
		}
		m := numericPrefix.FindString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
		if m == "" {
			return 0
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return v
	case d[0] == '-' || (d[0] >= '0' && d[0] <= '9'):
		v, err := strconv.ParseFloat(string(d), 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}

func textOf(data []byte) string {
	d := bytes.TrimSpace(data)
	if len(d) == 0 {
		return ""
	}
	switch d[0] {
	case '"':
		var s string
		if json.Unmarshal(d, &s) != nil {
			return ""
		}
		return s
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(d, &items) != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if p := textOf(item); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	case '{', 'n':
		return ""
	}
	return string(d)
}

func isNull(data []byte) bool {
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

func isObject(data []byte) bool {
	d := bytes.TrimSpace(data)
	return len(d) > 0 && d[0] == '{'
}

// decodeItems decodes each element of a JSON array. A value that is not an
// array yields no items.
func decodeItems[T any](data json.RawMessage) ([]T, error) {
	var raw []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &raw) != nil {
		return nil, nil
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// UnmarshalJSON accepts an object or a bare string, which becomes the name.
func (e *Exercise) UnmarshalJSON(data []byte) error {
	*e = Exercise{}
	if !isObject(data) {
		e.Name = Text(textOf(data))
		return nil
	}
	type plain Exercise
	return json.Unmarshal(data, (*plain)(e))
}

// UnmarshalJSON accepts an object or a bare string, which becomes the
// description.
func (f *Food) UnmarshalJSON(data []byte) error {
	*f = Food{}
	if !isObject(data) {
		f.Description = Text(textOf(data))
		return nil
	}
	type plain Food
	return json.Unmarshal(data, (*plain)(f))
}

// UnmarshalJSON decodes a card; anything but an object is an empty card.
func (c *WorkoutCard) UnmarshalJSON(data []byte) error {
	*c = WorkoutCard{}
	if !isObject(data) {
		return nil
	}
	var wire struct {
		Day       Text            `json:"day"`
		Focus     Text            `json:"focus"`
		Warmup    Text            `json:"warmup"`
		Cooldown  Text            `json:"cooldown"`
		Notes     Text            `json:"notes"`
		Exercises json.RawMessage `json:"exercises"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	exercises, err := decodeItems[Exercise](wire.Exercises)
	if err != nil {
		return err
	}
	*c = WorkoutCard{
		Day:       wire.Day,
		Focus:     wire.Focus,
		Warmup:    wire.Warmup,
		Cooldown:  wire.Cooldown,
		Notes:     wire.Notes,
		Exercises: exercises,
	}
	return nil
}
