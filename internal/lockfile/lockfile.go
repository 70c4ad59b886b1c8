// Package lockfile implements the advisory run lock. The lock is the
// existence of a file: whoever creates it exclusively holds it until the
// file is removed again. There is no staleness detection, a lock left
// behind by a crashed holder looks exactly like a live one and has to be
// removed by hand.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// ErrHeld reports that the lock file already exists.
var ErrHeld = errors.New("lock already held")

// DefaultDir is the directory for derived lock paths. /dev/shm is
// preferred so locks never survive a reboot; hosts without it fall back to
// the system temp directory.
func DefaultDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

type Lock struct {
	fs   afero.Fs
	path string
}

func New(fs afero.Fs, path string) *Lock {
	return &Lock{fs: fs, path: path}
}

func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, retrying up to retries extra times with interval
// between attempts. With retries 0 there is exactly one attempt and no
// sleep. Cancelling ctx abandons the wait between attempts.
func (l *Lock) Acquire(ctx context.Context, retries int, interval time.Duration) error {
	for attempt := 0; ; attempt++ {
		err := l.tryAcquire()
		if err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for lock %s: %w", l.path, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// tryAcquire creates the lock file exclusively and writes the holder PID
// into it. The PID is a diagnostic for operators, nothing reads it back.
func (l *Lock) tryAcquire() error {
	f, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrHeld, l.path)
		}
		return fmt.Errorf("creating lock %s: %w", l.path, err)
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("writing pid to lock %s: %w", l.path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("closing lock %s: %w", l.path, cerr)
	}
	return nil
}

// Release removes the lock file. Releasing an already released lock is a
// no-op so cleanup paths can call it unconditionally.
func (l *Lock) Release() error {
	err := l.fs.Remove(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock %s: %w", l.path, err)
	}
	return nil
}
