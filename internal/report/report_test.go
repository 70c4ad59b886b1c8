package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cronguard/cronguard/internal/report"
	"github.com/cronguard/cronguard/internal/runner"
)

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()
	cases := []struct {
		scenario string
		given    float64
		want     string
	}{
		{"mid_2017", 1.5e9, "Fri, 14 Jul 2017 02:40:00 +0000"},
		{"epoch", 0, "Thu, 1 Jan 1970 00:00:00 +0000"},
		{"rounds_up", 1499999999.75, "Fri, 14 Jul 2017 02:40:00 +0000"},
		{"rounds_down", 1500000000.25, "Fri, 14 Jul 2017 02:40:00 +0000"},
	}
	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, report.FormatTimestamp(tc.given))
		})
	}
}

func TestFailureReport(t *testing.T) {
	t.Parallel()
	msg := "command reached timeout of 2 secs"
	buffered := []runner.Result{
		{ExitCode: 1, Stdout: "partial sync\n", Stderr: "disk full\n", StartTime: 1.5e9, RunTime: 1.234},
	}
	current := runner.Result{ExitCode: -1, StartTime: 1.5e9 + 3600, RunTime: 2.0, InternalError: &msg}

	got := report.Failure("/usr/bin/rsync -a /src /dst", 2, 2, buffered, current)

	want := "The specified number of failures, 2, has been reached for the following command, which has failed 2 times in a row: /usr/bin/rsync -a /src /dst\n" +
		"\n" +
		"FAILURES:\n" +
		"=====\n" +
		"Command: /usr/bin/rsync -a /src /dst\n" +
		"Start Time: Fri, 14 Jul 2017 02:40:00 +0000\n" +
		"Run Time (seconds): 1.23\n" +
		"Exit Code: 1\n" +
		"\n" +
		"STDOUT:\n" +
		"-----\n" +
		"partial sync\n" +
		"\n" +
		"-----\n" +
		"\n" +
		"STDERR:\n" +
		"-----\n" +
		"disk full\n" +
		"\n" +
		"-----\n" +
		"=====\n" +
		"=====\n" +
		"Command: /usr/bin/rsync -a /src /dst\n" +
		"Start Time: Fri, 14 Jul 2017 03:40:00 +0000\n" +
		"Run Time (seconds): 2.00\n" +
		"Exit Code: Internal Error: command reached timeout of 2 secs\n" +
		"=====\n"

	require.Equal(t, want, got)
}

func TestFailureReportOmitsEmptyOutput(t *testing.T) {
	t.Parallel()
	got := report.Failure("job", 1, 1, nil, runner.Result{ExitCode: 7})
	require.NotContains(t, got, "STDOUT")
	require.NotContains(t, got, "STDERR")
	require.NotContains(t, got, "-----")
	require.Equal(t, 2, strings.Count(got, "=====\n"))
}

func TestSuccessReport(t *testing.T) {
	t.Parallel()
	got := report.Success("/bin/echo hi", runner.Result{ExitCode: 0, Stdout: "hi\n", StartTime: 1.5e9, RunTime: 0.004})

	want := "The command has run successfully!\n" +
		"\n" +
		"=====\n" +
		"Command: /bin/echo hi\n" +
		"Start Time: Fri, 14 Jul 2017 02:40:00 +0000\n" +
		"Run Time (seconds): 0.00\n" +
		"Exit Code: 0\n" +
		"\n" +
		"STDOUT:\n" +
		"-----\n" +
		"hi\n" +
		"\n" +
		"-----\n" +
		"=====\n"

	require.Equal(t, want, got)
}
