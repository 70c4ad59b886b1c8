package model

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Flag and config file defaults.
const (
	DefaultStateDir   = "/var/tmp"
	DefaultRetrySecs  = 10
	DefaultNumFails   = 1
	DefaultSMTPServer = "localhost"
	DefaultSMTPPort   = 25
	DefaultSubject    = "cronguard failure report"
	DefaultFacility   = "log_local7"
	DefaultSeverity   = "log_info"
)

// Config is the fully resolved configuration of one cronguard invocation.
// The CLI assembles it from flags and the optional config file; everything
// below cmd consumes only this struct.
type Config struct {
	Command Command

	StateDir string
	LockFile string // empty derives <lockdir>/<fingerprint>.lock

	NumRetries       int
	RetrySecs        int
	IgnoreRetryFails bool

	NumFails  int
	FirstFail bool
	Backoff   bool

	TimeoutSecs int // 0 lets the command run unbounded
	FuzzSecs    int
	Path        string
	Quiet       bool
	Debug       bool

	Syslog   SyslogConfig
	Mail     MailConfig
	Schedule ScheduleConfig
}

type SyslogConfig struct {
	Enabled  bool
	Facility string
	Severity string
}

type MailConfig struct {
	Enabled          bool
	AlsoNormalOutput bool
	From             string // empty derives user@hostname
	Recipients       []string
	Subject          string
	Server           string
	Port             int
	TLS              bool
	StartTLS         bool
	Username         string
	Password         string
	CredsFile        string
}

type ScheduleConfig struct {
	Every Duration
	Cron  string
}

// Enabled reports whether the invocation runs on an internal schedule
// instead of once.
func (s ScheduleConfig) Enabled() bool {
	return s.Cron != "" || s.Every.Duration > 0
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func (c Config) RetryInterval() time.Duration {
	return time.Duration(c.RetrySecs) * time.Second
}

// Validate checks everything the run loop assumes. The failure threshold in
// particular must stay positive, it is a modulo divisor.
func (c Config) Validate() error {
	if len(c.Command.Argv) == 0 {
		return ErrNoCommand
	}
	if c.NumFails < 1 {
		return fmt.Errorf("num-fails must be at least 1, got %d", c.NumFails)
	}
	if c.NumRetries < 0 {
		return fmt.Errorf("num-retries must not be negative, got %d", c.NumRetries)
	}
	if c.RetrySecs < 0 {
		return fmt.Errorf("retry-secs must not be negative, got %d", c.RetrySecs)
	}
	if c.TimeoutSecs < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.TimeoutSecs)
	}
	if c.FuzzSecs < 0 {
		return fmt.Errorf("fuzz must not be negative, got %d", c.FuzzSecs)
	}
	if c.Mail.Enabled && len(c.Mail.Recipients) == 0 {
		return ErrNoRecipients
	}
	if c.Schedule.Cron != "" && c.Schedule.Every.Duration > 0 {
		return errors.New("cron and every are mutually exclusive")
	}
	if c.Schedule.Cron != "" {
		if _, err := ParseCron(c.Schedule.Cron); err != nil {
			return fmt.Errorf("parsing cron expression: %w", err)
		}
	}
	return nil
}

// FileConfig is the optional YAML overlay. Field semantics match the flags
// of the same name; values set on the command line win over the file.
// Pointer fields distinguish "absent" from zero values.
type FileConfig struct {
	StateDir         *string `yaml:"state_dir"`
	LockFile         *string `yaml:"lock_file"`
	NumRetries       *int    `yaml:"num_retries"`
	RetrySecs        *int    `yaml:"retry_secs"`
	IgnoreRetryFails *bool   `yaml:"ignore_retry_fails"`
	NumFails         *int    `yaml:"num_fails"`
	FirstFail        *bool   `yaml:"first_fail"`
	Backoff          *bool   `yaml:"backoff"`
	TimeoutSecs      *int    `yaml:"timeout"`
	FuzzSecs         *int    `yaml:"fuzz"`
	Path             *string `yaml:"path"`
	Quiet            *bool   `yaml:"quiet"`
	Debug            *bool   `yaml:"debug"`

	Syslog   *FileSyslog   `yaml:"syslog"`
	Mail     *FileMail     `yaml:"mail"`
	Schedule *FileSchedule `yaml:"schedule"`
}

type FileSyslog struct {
	Enabled  *bool   `yaml:"enabled"`
	Facility *string `yaml:"facility"`
	Severity *string `yaml:"severity"`
}

type FileMail struct {
	Enabled          *bool    `yaml:"enabled"`
	AlsoNormalOutput *bool    `yaml:"also_normal_output"`
	From             *string  `yaml:"from"`
	Recipients       []string `yaml:"recipients"`
	Subject          *string  `yaml:"subject"`
	Server           *string  `yaml:"server"`
	Port             *int     `yaml:"port"`
	TLS              *bool    `yaml:"tls"`
	StartTLS         *bool    `yaml:"starttls"`
	Username         *string  `yaml:"username"`
	Password         *string  `yaml:"password"`
	CredsFile        *string  `yaml:"creds_file"`
}

type FileSchedule struct {
	Every *Duration `yaml:"every"`
	Cron  *string   `yaml:"cron"`
}

// LoadFileConfig decodes the YAML overlay, rejecting unknown fields so
// typos surface instead of silently doing nothing. An empty file is a
// valid, empty overlay.
func LoadFileConfig(r io.Reader) (*FileConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fc FileConfig
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, err
	}
	return &fc, nil
}
