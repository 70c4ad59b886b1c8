package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cronguard/cronguard/internal/model"
)

func validConfig() model.Config {
	return model.Config{
		Command:  model.Command{Argv: []string{"/bin/true"}},
		StateDir: model.DefaultStateDir,
		NumFails: model.DefaultNumFails,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		scenario string
		mutate   func(*model.Config)
		wantErr  string
	}{
		{"valid", func(c *model.Config) {}, ""},
		{"no_command", func(c *model.Config) { c.Command.Argv = nil }, "no command given"},
		{"zero_num_fails", func(c *model.Config) { c.NumFails = 0 }, "num-fails must be at least 1, got 0"},
		{"negative_retries", func(c *model.Config) { c.NumRetries = -1 }, "num-retries must not be negative, got -1"},
		{"negative_retry_secs", func(c *model.Config) { c.RetrySecs = -2 }, "retry-secs must not be negative, got -2"},
		{"negative_timeout", func(c *model.Config) { c.TimeoutSecs = -1 }, "timeout must not be negative, got -1"},
		{"negative_fuzz", func(c *model.Config) { c.FuzzSecs = -1 }, "fuzz must not be negative, got -1"},
		{"mail_without_recipients", func(c *model.Config) { c.Mail.Enabled = true }, "mail enabled but no recipients given"},
		{"cron_and_every", func(c *model.Config) {
			c.Schedule.Cron = "* * * * *"
			c.Schedule.Every = model.Duration{Duration: time.Minute}
		}, "cron and every are mutually exclusive"},
		{"bad_cron", func(c *model.Config) { c.Schedule.Cron = "not a cron" }, ""},
	}

	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			switch {
			case tc.scenario == "valid":
				require.NoError(t, err)
			case tc.wantErr == "":
				require.Error(t, err)
			default:
				require.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestConfigValidateMailOk(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Mail.Enabled = true
	cfg.Mail.Recipients = []string{"ops@example.com"}
	require.NoError(t, cfg.Validate())
}

func TestLoadFileConfig(t *testing.T) {
	t.Parallel()
	yml := `
state_dir: /var/lib/cronguard
num_fails: 3
backoff: true
syslog:
  enabled: true
  facility: log_cron
mail:
  enabled: true
  recipients:
    - ops@example.com
    - oncall@example.com
  server: mail.example.com
  port: 587
  starttls: true
schedule:
  every: 90s
`
	fc, err := model.LoadFileConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.NotNil(t, fc)

	require.NotNil(t, fc.StateDir)
	require.Equal(t, "/var/lib/cronguard", *fc.StateDir)
	require.NotNil(t, fc.NumFails)
	require.Equal(t, 3, *fc.NumFails)
	require.NotNil(t, fc.Backoff)
	require.True(t, *fc.Backoff)
	require.Nil(t, fc.FirstFail)
	require.Nil(t, fc.LockFile)

	require.NotNil(t, fc.Syslog)
	require.NotNil(t, fc.Syslog.Enabled)
	require.True(t, *fc.Syslog.Enabled)
	require.Equal(t, "log_cron", *fc.Syslog.Facility)
	require.Nil(t, fc.Syslog.Severity)

	require.NotNil(t, fc.Mail)
	require.Equal(t, []string{"ops@example.com", "oncall@example.com"}, fc.Mail.Recipients)
	require.Equal(t, 587, *fc.Mail.Port)
	require.True(t, *fc.Mail.StartTLS)

	require.NotNil(t, fc.Schedule)
	require.NotNil(t, fc.Schedule.Every)
	require.Equal(t, 90*time.Second, fc.Schedule.Every.AsDuration())
	require.Nil(t, fc.Schedule.Cron)
}

func TestLoadFileConfigRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := model.LoadFileConfig(strings.NewReader("state_dri: /tmp\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "state_dri")
}

func TestLoadFileConfigEmpty(t *testing.T) {
	t.Parallel()
	fc, err := model.LoadFileConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.NotNil(t, fc)
	require.Nil(t, fc.StateDir)
}

func TestDuration(t *testing.T) {
	t.Parallel()
	var d model.Duration
	require.NoError(t, d.UnmarshalText([]byte("5m")))
	require.Equal(t, 5*time.Minute, d.AsDuration())

	require.Error(t, d.UnmarshalText(nil))
	require.Error(t, d.UnmarshalText([]byte("five minutes")))

	text, err := model.Duration{Duration: 90 * time.Second}.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1m30s", string(text))
}

func TestCommand(t *testing.T) {
	t.Parallel()
	t.Run("argv", func(t *testing.T) {
		t.Parallel()
		cmd := model.Command{Argv: []string{"/usr/bin/rsync", "-a", "/src", "/dst"}}
		require.Equal(t, "/usr/bin/rsync -a /src /dst", cmd.CLI())
		require.Equal(t, "/usr/bin/rsync", cmd.Program())
	})
	t.Run("shell", func(t *testing.T) {
		t.Parallel()
		cmd := model.Command{Argv: []string{"cat /tmp/file | grep stuff"}, Shell: true}
		require.Equal(t, "cat /tmp/file | grep stuff", cmd.CLI())
		require.Equal(t, "cat", cmd.Program())
	})
	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "", model.Command{}.Program())
	})
}

func TestParseCron(t *testing.T) {
	t.Parallel()
	cases := []struct {
		scenario string
		given    string
		interval time.Duration
		wantErr  bool
	}{
		{"every_5_minutes", "*/5 * * * *", 5 * time.Minute, false},
		{"every_minute", "* * * * *", time.Minute, false},
		{"hourly_macro", "@hourly", time.Hour, false},
		{"six_fields_rejected", "0 */2 * * * *", 0, true},
		{"empty", "", 0, true},
		{"garbage", "often", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			interval, err := model.ParseCron(tc.given)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.interval, interval)
		})
	}
}
