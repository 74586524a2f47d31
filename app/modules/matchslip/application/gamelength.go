package matchslipservice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// GameLength is how long a game took. Clients send it as a number of seconds
// or as a duration string such as "30m" or "1h5m".
type GameLength time.Duration

func (d *GameLength) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var parsed time.Duration
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		parsed = v
	} else {
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return errors.New("duration must be seconds or a duration string")
		}
		if secs > math.MaxInt64/float64(time.Second) {
			return errors.New("duration is too long")
		}
		parsed = time.Duration(secs * float64(time.Second))
	}

	if parsed < 0 {
		return errors.New("duration must not be negative")
	}
	*d = GameLength(parsed)
	return nil
}

// MarshalJSON writes whole and fractional seconds, the same unit clients send.
func (d GameLength) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Seconds())
}
