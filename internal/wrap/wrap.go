// Package wrap orchestrates one guarded run: fuzz delay, lock, execute,
// classify, report, persist, unlock.
package wrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/cronguard/cronguard/internal/fingerprint"
	"github.com/cronguard/cronguard/internal/lockfile"
	"github.com/cronguard/cronguard/internal/model"
	"github.com/cronguard/cronguard/internal/notify"
	"github.com/cronguard/cronguard/internal/report"
	"github.com/cronguard/cronguard/internal/runner"
	"github.com/cronguard/cronguard/internal/state"
)

// FailureLogger receives one line per failed run, regardless of whether a
// report goes out. notify.Syslogger implements it.
type FailureLogger interface {
	Log(msg string) error
}

// ExecuteFunc runs the wrapped command and reduces it to a Result.
type ExecuteFunc func(ctx context.Context, cmd model.Command, timeout time.Duration) runner.Result

// Manager ties fingerprint, lock, state store, executor and report sinks
// together for one wrapped command.
type Manager struct {
	cfg     model.Config
	log     *slog.Logger
	fs      afero.Fs
	store   *state.Store
	lock    *lockfile.Lock
	out     io.Writer
	mailer  notify.Sink
	syslog  FailureLogger
	execute ExecuteFunc
}

// New validates cfg and assembles a Manager. The only side effect is the
// optional syslog connection; an unreachable daemon logs a warning and the
// run continues without syslog.
func New(cfg model.Config, logger *slog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:     cfg,
		log:     logger,
		fs:      afero.NewOsFs(),
		out:     os.Stdout,
		execute: runner.Execute,
	}

	fp := fingerprint.Generate(cfg.Command)
	m.store = state.NewStore(m.fs, filepath.Join(cfg.StateDir, fp))
	lockPath := cfg.LockFile
	if lockPath == "" {
		lockPath = filepath.Join(lockfile.DefaultDir(), fp+".lock")
	}
	m.lock = lockfile.New(m.fs, lockPath)
	logger.Debug("resolved command files",
		slog.String("state_file", m.store.Path()),
		slog.String("lock_file", m.lock.Path()))

	if cfg.Syslog.Enabled {
		sl, err := notify.NewSyslogger(cfg.Syslog.Facility, cfg.Syslog.Severity)
		switch {
		case errors.Is(err, notify.ErrSyslogUnavailable):
			logger.Warn("syslog unreachable, continuing without it", "error", err)
		case err != nil:
			return nil, err
		default:
			m.syslog = sl
		}
	}
	if cfg.Mail.Enabled {
		mailer, err := notify.NewMailer(cfg.Mail)
		if err != nil {
			return nil, err
		}
		m.mailer = mailer
	}
	return m, nil
}

// WithFS moves the state and lock files onto fs.
// This method exists for a unit testing only.
func (m *Manager) WithFS(fs afero.Fs) *Manager {
	m.fs = fs
	m.store = state.NewStore(fs, m.store.Path())
	m.lock = lockfile.New(fs, m.lock.Path())
	return m
}

// WithOutput redirects report printing away from standard output.
// This method exists for a unit testing only.
func (m *Manager) WithOutput(w io.Writer) *Manager {
	m.out = w
	return m
}

// WithMailer replaces the SMTP sink.
// This method exists for a unit testing only.
func (m *Manager) WithMailer(s notify.Sink) *Manager {
	m.mailer = s
	return m
}

// WithFailureLogger replaces the syslog writer.
// This method exists for a unit testing only.
func (m *Manager) WithFailureLogger(l FailureLogger) *Manager {
	m.syslog = l
	return m
}

// WithExecutor replaces the subprocess executor.
// This method exists for a unit testing only.
func (m *Manager) WithExecutor(fn ExecuteFunc) *Manager {
	m.execute = fn
	return m
}

// RunOnce performs one full guarded run. A failing wrapped command is a
// normal completion; only lock trouble, a corrupt state file or a failed
// unlock make the invocation itself fail.
func (m *Manager) RunOnce(ctx context.Context) (err error) {
	if serr := m.fuzzSleep(ctx); serr != nil {
		m.log.WarnContext(ctx, "interrupted before run", "error", serr)
		return nil
	}

	if lerr := m.lock.Acquire(ctx, m.cfg.NumRetries, m.cfg.RetryInterval()); lerr != nil {
		if m.cfg.IgnoreRetryFails {
			m.log.DebugContext(ctx, "lock not acquired, skipping run",
				slog.String("lock_file", m.lock.Path()), "error", lerr)
			return nil
		}
		return lerr
	}
	defer func() {
		err = errors.Join(err, m.lock.Release())
	}()

	st, err := m.store.Load()
	if err != nil {
		return err
	}
	if st == nil {
		st = state.New(m.cfg.Command)
	}

	res := m.execute(ctx, m.cfg.Command, m.cfg.Timeout())
	if ctx.Err() != nil {
		m.log.WarnContext(ctx, "interrupted, discarding run", "error", ctx.Err())
		return nil
	}

	if res.Failed() {
		m.handleFailure(ctx, st, res)
	} else {
		m.handleSuccess(ctx, st, res)
	}

	if serr := m.store.Save(st); serr != nil {
		m.log.ErrorContext(ctx, "persisting state failed",
			slog.String("state_file", m.store.Path()), "error", serr)
	}
	return nil
}

func (m *Manager) handleFailure(ctx context.Context, st *state.RunState, res runner.Result) {
	st.NumFails++
	m.log.InfoContext(ctx, "command failed",
		slog.Int("exit_code", res.ExitCode),
		slog.Int("num_fails", st.NumFails))
	m.logFailure(ctx, st, res)

	if !m.policy().ShouldReport(st.NumFails) {
		st.Failures = append(st.Failures, res)
		return
	}
	body := report.Failure(st.CLI(), m.cfg.NumFails, st.NumFails, st.Failures, res)
	m.emit(ctx, body)
	st.ClearFailures()
}

func (m *Manager) handleSuccess(ctx context.Context, st *state.RunState, res runner.Result) {
	if st.NumFails > 0 {
		m.log.InfoContext(ctx, "command recovered",
			slog.Int("previous_fails", st.NumFails))
	}
	if !m.cfg.Quiet {
		fmt.Fprint(m.out, report.Success(st.CLI(), res))
	}
	st.Reset()
}

// logFailure sends the single-line syslog notice. Every failure is sent,
// the report cadence does not apply here.
func (m *Manager) logFailure(ctx context.Context, st *state.RunState, res runner.Result) {
	if m.syslog == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		m.log.ErrorContext(ctx, "encoding failure record for syslog", "error", err)
		return
	}
	msg := fmt.Sprintf("CRONGUARD FAILURE for `%s`: %s", st.CLI(), raw)
	if err := m.syslog.Log(msg); err != nil {
		m.log.ErrorContext(ctx, "syslog delivery failed", "error", err)
	}
}

// emit delivers one failure report. Transport trouble is reported but never
// changes the exit status.
func (m *Manager) emit(ctx context.Context, body string) {
	if m.mailer != nil {
		if err := m.mailer.Send(ctx, m.cfg.Mail.Subject, body); err != nil {
			m.log.ErrorContext(ctx, "mail delivery failed", "error", err)
			fmt.Fprintf(m.out, "*** Failed to send the email using internal transport ***\nError: %v\n", err)
		}
	}
	if m.mailer == nil || m.cfg.Mail.AlsoNormalOutput {
		fmt.Fprint(m.out, body)
	}
}

// fuzzSleep delays the run by a uniform random 0..=fuzz seconds so herds of
// jobs firing on the same crontab minute spread out.
func (m *Manager) fuzzSleep(ctx context.Context) error {
	if m.cfg.FuzzSecs <= 0 {
		return nil
	}
	delay := time.Duration(rand.IntN(m.cfg.FuzzSecs+1)) * time.Second
	m.log.DebugContext(ctx, "fuzz delay", slog.Duration("delay", delay))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (m *Manager) policy() report.Policy {
	return report.Policy{
		Threshold: m.cfg.NumFails,
		Backoff:   m.cfg.Backoff,
		FirstFail: m.cfg.FirstFail,
	}
}
