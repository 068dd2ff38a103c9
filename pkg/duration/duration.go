package duration

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that marshals to and from strings in
// time.ParseDuration syntax.
type Duration time.Duration

// Parse converts a string in time.ParseDuration syntax.
func Parse(s string) (Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(d), nil
}

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// IsZero reports whether the duration is unset.
func (d Duration) IsZero() bool {
	return d == 0
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML encodes the duration as a string such as "2m0s".
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML decodes a duration string in time.ParseDuration syntax.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
