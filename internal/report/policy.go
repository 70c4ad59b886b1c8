// Package report decides when buffered failures turn into a report and
// renders the fixed plain-text format operators receive.
package report

// Policy is the report cadence for one command.
type Policy struct {
	Threshold int  // report every Nth consecutive failure, must be >= 1
	Backoff   bool // report at threshold*2^k instead of every Nth
	FirstFail bool // additionally report the very first failure
}

// ShouldReport decides for the n-th consecutive failure, counted from 1.
// The rules are checked in a fixed order and the first hit wins: backoff
// beats the every-Nth rule, which beats first-fail. Anything else stays
// buffered. With Backoff set the every-Nth rule is unreachable.
func (p Policy) ShouldReport(n int) bool {
	switch {
	case p.Backoff && backoffMatch(p.Threshold, n):
		return true
	case !p.Backoff && p.Threshold > 0 && n%p.Threshold == 0:
		return true
	case p.FirstFail && n == 1:
		return true
	}
	return false
}

// backoffMatch reports whether n sits on the threshold, threshold*2,
// threshold*4, ... ladder.
func backoffMatch(threshold, n int) bool {
	if threshold < 1 {
		return false
	}
	for count := threshold; count <= n; count *= 2 {
		if count == n {
			return true
		}
	}
	return false
}
