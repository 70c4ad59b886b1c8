// human readable and writable stdlib types
// which can be used inside config file
package model

import (
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets config files and flags spell intervals like "90s" or "5m".
type Duration struct {
	time.Duration
}

func (d Duration) AsDuration() time.Duration {
	return d.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	if d == nil {
		return errors.New("can't unmarshal to nil")
	}
	if len(text) == 0 {
		return errors.New("can't be empty")
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	if d.Duration == 0 {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// yaml.v3 does not consult encoding.TextUnmarshaler, so route it through.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalYAML() (any, error) {
	if d.Duration == 0 {
		return "", nil
	}
	return d.String(), nil
}
