package notify_test

import (
	"errors"
	"log/syslog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cronguard/cronguard/internal/notify"
)

func TestParseFacility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scenario string
		name     string
		want     syslog.Priority
		wantErr  bool
	}{
		{scenario: "bare name", name: "local7", want: syslog.LOG_LOCAL7},
		{scenario: "log prefix", name: "log_local7", want: syslog.LOG_LOCAL7},
		{scenario: "upper case", name: "LOG_DAEMON", want: syslog.LOG_DAEMON},
		{scenario: "cron", name: "cron", want: syslog.LOG_CRON},
		{scenario: "unknown", name: "local8", wantErr: true},
		{scenario: "empty", name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()

			got, err := notify.ParseFacility(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scenario string
		name     string
		want     syslog.Priority
		wantErr  bool
	}{
		{scenario: "bare name", name: "info", want: syslog.LOG_INFO},
		{scenario: "log prefix", name: "log_warning", want: syslog.LOG_WARNING},
		{scenario: "upper case", name: "LOG_ERR", want: syslog.LOG_ERR},
		{scenario: "unknown", name: "fatal", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()

			got, err := notify.ParseSeverity(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewSysloggerBadNames(t *testing.T) {
	t.Parallel()

	_, err := notify.NewSyslogger("nope", "log_info")
	require.Error(t, err)
	require.NotErrorIs(t, err, notify.ErrSyslogUnavailable)

	_, err = notify.NewSyslogger("log_local7", "nope")
	require.Error(t, err)
	require.NotErrorIs(t, err, notify.ErrSyslogUnavailable)
}

func TestSyslogger(t *testing.T) {
	t.Parallel()

	s, err := notify.NewSyslogger("log_local7", "log_info")
	if errors.Is(err, notify.ErrSyslogUnavailable) {
		t.Skipf("no syslog daemon: %v", err)
	}
	require.NoError(t, err)

	require.NoError(t, s.Log("CRONGUARD FAILURE for `/bin/false`: test"))
	require.NoError(t, s.Close())
}
