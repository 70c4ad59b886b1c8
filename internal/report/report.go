package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cronguard/cronguard/internal/runner"
)

const (
	runDelimiter    = "=====\n"
	outputDelimiter = "-----\n"

	// rfc2822 is the classic email date layout, day unpadded.
	rfc2822 = "Mon, 2 Jan 2006 15:04:05 +0000"
)

// FormatTimestamp renders a Unix timestamp with fractional seconds as
// RFC 2822 in UTC, rounded to the nearest second.
func FormatTimestamp(ts float64) string {
	return time.Unix(int64(math.Round(ts)), 0).UTC().Format(rfc2822)
}

// Failure renders the report sent when the cadence policy fires: a banner
// naming the threshold and the failure streak, then one block per buffered
// record and one for the run that tripped the report.
func Failure(cli string, threshold, numFails int, buffered []runner.Result, current runner.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"The specified number of failures, %d, has been reached for the following command, which has failed %d times in a row: %s\n\nFAILURES:\n",
		threshold, numFails, cli)
	for _, run := range buffered {
		writeRun(&b, cli, run)
	}
	writeRun(&b, cli, current)
	return b.String()
}

// Success renders the report printed after a successful run.
func Success(cli string, run runner.Result) string {
	var b strings.Builder
	b.WriteString("The command has run successfully!\n\n")
	writeRun(&b, cli, run)
	return b.String()
}

func writeRun(b *strings.Builder, cli string, run runner.Result) {
	b.WriteString(runDelimiter)
	fmt.Fprintf(b, "Command: %s\n", cli)
	fmt.Fprintf(b, "Start Time: %s\n", FormatTimestamp(run.StartTime))
	fmt.Fprintf(b, "Run Time (seconds): %.2f\n", run.RunTime)
	b.WriteString("Exit Code: ")
	if run.InternalError != nil {
		fmt.Fprintf(b, "Internal Error: %s\n", *run.InternalError)
	} else {
		fmt.Fprintf(b, "%d\n", run.ExitCode)
	}
	if run.Stdout != "" {
		b.WriteString("\nSTDOUT:\n")
		b.WriteString(outputDelimiter)
		b.WriteString(run.Stdout)
		b.WriteString("\n")
		b.WriteString(outputDelimiter)
	}
	if run.Stderr != "" {
		b.WriteString("\nSTDERR:\n")
		b.WriteString(outputDelimiter)
		b.WriteString(run.Stderr)
		b.WriteString("\n")
		b.WriteString(outputDelimiter)
	}
	b.WriteString(runDelimiter)
}
