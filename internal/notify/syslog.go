package notify

import (
	"errors"
	"fmt"
	"log/syslog"
	"strings"
)

// ErrSyslogUnavailable signals that the local syslog daemon could not be
// reached. Callers may treat it as non-fatal and carry on without syslog.
var ErrSyslogUnavailable = errors.New("syslog unavailable")

var facilities = map[string]syslog.Priority{
	"kern":     syslog.LOG_KERN,
	"user":     syslog.LOG_USER,
	"mail":     syslog.LOG_MAIL,
	"daemon":   syslog.LOG_DAEMON,
	"auth":     syslog.LOG_AUTH,
	"syslog":   syslog.LOG_SYSLOG,
	"lpr":      syslog.LOG_LPR,
	"news":     syslog.LOG_NEWS,
	"uucp":     syslog.LOG_UUCP,
	"cron":     syslog.LOG_CRON,
	"authpriv": syslog.LOG_AUTHPRIV,
	"ftp":      syslog.LOG_FTP,
	"local0":   syslog.LOG_LOCAL0,
	"local1":   syslog.LOG_LOCAL1,
	"local2":   syslog.LOG_LOCAL2,
	"local3":   syslog.LOG_LOCAL3,
	"local4":   syslog.LOG_LOCAL4,
	"local5":   syslog.LOG_LOCAL5,
	"local6":   syslog.LOG_LOCAL6,
	"local7":   syslog.LOG_LOCAL7,
}

var severities = map[string]syslog.Priority{
	"emerg":   syslog.LOG_EMERG,
	"alert":   syslog.LOG_ALERT,
	"crit":    syslog.LOG_CRIT,
	"err":     syslog.LOG_ERR,
	"warning": syslog.LOG_WARNING,
	"notice":  syslog.LOG_NOTICE,
	"info":    syslog.LOG_INFO,
	"debug":   syslog.LOG_DEBUG,
}

// normalize accepts both the bare name and the traditional LOG_* spelling,
// in any case.
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "log_")
}

func ParseFacility(name string) (syslog.Priority, error) {
	p, ok := facilities[normalize(name)]
	if !ok {
		return 0, fmt.Errorf("unknown syslog facility %q", name)
	}
	return p, nil
}

func ParseSeverity(name string) (syslog.Priority, error) {
	p, ok := severities[normalize(name)]
	if !ok {
		return 0, fmt.Errorf("unknown syslog severity %q", name)
	}
	return p, nil
}

// Syslogger sends single-line failure notices to the local syslog daemon.
type Syslogger struct {
	w   *syslog.Writer
	sev syslog.Priority
}

func NewSyslogger(facility, severity string) (*Syslogger, error) {
	fac, err := ParseFacility(facility)
	if err != nil {
		return nil, err
	}
	sev, err := ParseSeverity(severity)
	if err != nil {
		return nil, err
	}
	w, err := syslog.New(fac|sev, "cronguard")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyslogUnavailable, err)
	}
	return &Syslogger{w: w, sev: sev}, nil
}

func (s *Syslogger) Log(msg string) error {
	switch s.sev {
	case syslog.LOG_EMERG:
		return s.w.Emerg(msg)
	case syslog.LOG_ALERT:
		return s.w.Alert(msg)
	case syslog.LOG_CRIT:
		return s.w.Crit(msg)
	case syslog.LOG_ERR:
		return s.w.Err(msg)
	case syslog.LOG_WARNING:
		return s.w.Warning(msg)
	case syslog.LOG_NOTICE:
		return s.w.Notice(msg)
	case syslog.LOG_DEBUG:
		return s.w.Debug(msg)
	default:
		return s.w.Info(msg)
	}
}

func (s *Syslogger) Close() error {
	return s.w.Close()
}
