// Package timex holds small time helpers shared by configuration and the
// journal store: a JSON-friendly duration and the entry date parser.
package timex

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Duration wraps time.Duration so it can be decoded from either a string
// such as "1h30m" or an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}
