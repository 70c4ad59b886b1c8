package report_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cronguard/cronguard/internal/report"
)

func reportedAt(p report.Policy, upto int) []int {
	var hits []int
	for n := 1; n <= upto; n++ {
		if p.ShouldReport(n) {
			hits = append(hits, n)
		}
	}
	return hits
}

func TestShouldReport(t *testing.T) {
	t.Parallel()
	cases := []struct {
		scenario string
		policy   report.Policy
		upto     int
		want     []int
	}{
		{
			scenario: "default_threshold_one_reports_every_failure",
			policy:   report.Policy{Threshold: 1},
			upto:     4,
			want:     []int{1, 2, 3, 4},
		},
		{
			scenario: "every_fifth",
			policy:   report.Policy{Threshold: 5},
			upto:     12,
			want:     []int{5, 10},
		},
		{
			scenario: "backoff_doubles_the_gap",
			policy:   report.Policy{Threshold: 3, Backoff: true},
			upto:     25,
			want:     []int{3, 6, 12, 24},
		},
		{
			scenario: "backoff_suppresses_the_modulo_rule",
			policy:   report.Policy{Threshold: 2, Backoff: true},
			upto:     10,
			want:     []int{2, 4, 8},
		},
		{
			scenario: "first_fail_adds_run_one",
			policy:   report.Policy{Threshold: 5, FirstFail: true},
			upto:     10,
			want:     []int{1, 5, 10},
		},
		{
			scenario: "first_fail_with_backoff",
			policy:   report.Policy{Threshold: 4, Backoff: true, FirstFail: true},
			upto:     16,
			want:     []int{1, 4, 8, 16},
		},
		{
			scenario: "backoff_from_one",
			policy:   report.Policy{Threshold: 1, Backoff: true},
			upto:     9,
			want:     []int{1, 2, 4, 8},
		},
	}

	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, reportedAt(tc.policy, tc.upto))
		})
	}
}
