package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cronguard/cronguard/internal/model"
	"github.com/cronguard/cronguard/internal/notify"
)

// resolveConfig folds flag values, the optional config file and the creds
// file into one model.Config. Precedence: defaults < config file < flags
// given on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (model.Config, error) {
	cfg, err := configFromFlags(args)
	if err != nil {
		return model.Config{}, err
	}

	if flagConfigFile != "" {
		f, err := os.Open(flagConfigFile)
		if err != nil {
			return model.Config{}, fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		fc, err := model.LoadFileConfig(f)
		if err != nil {
			return model.Config{}, fmt.Errorf("parsing config file %s: %w", flagConfigFile, err)
		}
		applyFile(cmd, &cfg, fc)
	}

	if cfg.Mail.CredsFile != "" {
		raw, err := os.ReadFile(cfg.Mail.CredsFile)
		if err != nil {
			return model.Config{}, fmt.Errorf("reading creds file: %w", err)
		}
		username, password, err := notify.ParseCreds(string(raw))
		if err != nil {
			return model.Config{}, fmt.Errorf("creds file %s: %w", cfg.Mail.CredsFile, err)
		}
		cfg.Mail.Username = username
		cfg.Mail.Password = password
	}

	return cfg, nil
}

func configFromFlags(args []string) (model.Config, error) {
	cfg := model.Config{
		Command:          model.Command{Argv: args, Shell: flagBashString},
		StateDir:         flagStateDir,
		LockFile:         flagLockFile,
		NumRetries:       flagNumRetries,
		RetrySecs:        flagRetrySecs,
		IgnoreRetryFails: flagIgnoreRetry,
		NumFails:         flagNumFails,
		FirstFail:        flagFirstFail,
		Backoff:          flagBackoff,
		TimeoutSecs:      flagTimeout,
		FuzzSecs:         flagFuzz,
		Path:             flagPath,
		Quiet:            flagQuiet,
		Debug:            flagDebug,
		Syslog: model.SyslogConfig{
			Enabled:  flagSyslog,
			Facility: flagSyslogFac,
			Severity: flagSyslogPri,
		},
		Mail: model.MailConfig{
			Enabled:          flagSendMail,
			AlsoNormalOutput: flagAlsoNormal,
			From:             flagEmailFrom,
			Recipients:       flagRecipients,
			Subject:          flagSubject,
			Server:           flagSMTPServer,
			Port:             flagSMTPPort,
			TLS:              flagTLS,
			StartTLS:         flagStartTLS,
			Username:         flagUsername,
			Password:         flagPassword,
			CredsFile:        flagCredsFile,
		},
		Schedule: model.ScheduleConfig{
			Cron: flagCron,
		},
	}
	if flagEvery != "" {
		var d model.Duration
		if err := d.UnmarshalText([]byte(flagEvery)); err != nil {
			return model.Config{}, fmt.Errorf("parsing --every: %w", err)
		}
		cfg.Schedule.Every = d
	}
	return cfg, nil
}

// applyFile merges the config file into cfg, skipping every knob that was
// set explicitly on the command line.
func applyFile(cmd *cobra.Command, cfg *model.Config, fc *model.FileConfig) {
	set := cmd.Flags().Changed

	if fc.StateDir != nil && !set("state-dir") {
		cfg.StateDir = *fc.StateDir
	}
	if fc.LockFile != nil && !set("lock-file") {
		cfg.LockFile = *fc.LockFile
	}
	if fc.NumRetries != nil && !set("num-retries") {
		cfg.NumRetries = *fc.NumRetries
	}
	if fc.RetrySecs != nil && !set("retry-secs") {
		cfg.RetrySecs = *fc.RetrySecs
	}
	if fc.IgnoreRetryFails != nil && !set("ignore-retry-fails") {
		cfg.IgnoreRetryFails = *fc.IgnoreRetryFails
	}
	if fc.NumFails != nil && !set("num-fails") {
		cfg.NumFails = *fc.NumFails
	}
	if fc.FirstFail != nil && !set("first-fail") {
		cfg.FirstFail = *fc.FirstFail
	}
	if fc.Backoff != nil && !set("backoff") {
		cfg.Backoff = *fc.Backoff
	}
	if fc.TimeoutSecs != nil && !set("timeout") {
		cfg.TimeoutSecs = *fc.TimeoutSecs
	}
	if fc.FuzzSecs != nil && !set("fuzz") {
		cfg.FuzzSecs = *fc.FuzzSecs
	}
	if fc.Path != nil && !set("path") {
		cfg.Path = *fc.Path
	}
	if fc.Quiet != nil && !set("quiet") {
		cfg.Quiet = *fc.Quiet
	}
	if fc.Debug != nil && !set("debug") {
		cfg.Debug = *fc.Debug
	}

	if fc.Syslog != nil {
		if fc.Syslog.Enabled != nil && !set("syslog") {
			cfg.Syslog.Enabled = *fc.Syslog.Enabled
		}
		if fc.Syslog.Facility != nil && !set("syslog-fac") {
			cfg.Syslog.Facility = *fc.Syslog.Facility
		}
		if fc.Syslog.Severity != nil && !set("syslog-pri") {
			cfg.Syslog.Severity = *fc.Syslog.Severity
		}
	}

	if fc.Mail != nil {
		if fc.Mail.Enabled != nil && !set("send-mail") {
			cfg.Mail.Enabled = *fc.Mail.Enabled
		}
		if fc.Mail.AlsoNormalOutput != nil && !set("also-normal-output") {
			cfg.Mail.AlsoNormalOutput = *fc.Mail.AlsoNormalOutput
		}
		if fc.Mail.From != nil && !set("email-from") {
			cfg.Mail.From = *fc.Mail.From
		}
		if len(fc.Mail.Recipients) > 0 && !set("recipient") {
			cfg.Mail.Recipients = fc.Mail.Recipients
		}
		if fc.Mail.Subject != nil && !set("subject") {
			cfg.Mail.Subject = *fc.Mail.Subject
		}
		if fc.Mail.Server != nil && !set("smtp-server") {
			cfg.Mail.Server = *fc.Mail.Server
		}
		if fc.Mail.Port != nil && !set("smtp-port") {
			cfg.Mail.Port = *fc.Mail.Port
		}
		if fc.Mail.TLS != nil && !set("tls") {
			cfg.Mail.TLS = *fc.Mail.TLS
		}
		if fc.Mail.StartTLS != nil && !set("starttls") {
			cfg.Mail.StartTLS = *fc.Mail.StartTLS
		}
		if fc.Mail.Username != nil && !set("username") {
			cfg.Mail.Username = *fc.Mail.Username
		}
		if fc.Mail.Password != nil && !set("password") {
			cfg.Mail.Password = *fc.Mail.Password
		}
		if fc.Mail.CredsFile != nil && !set("creds-file") {
			cfg.Mail.CredsFile = *fc.Mail.CredsFile
		}
	}

	if fc.Schedule != nil {
		if fc.Schedule.Every != nil && !set("every") {
			cfg.Schedule.Every = *fc.Schedule.Every
		}
		if fc.Schedule.Cron != nil && !set("cron") {
			cfg.Schedule.Cron = *fc.Schedule.Cron
		}
	}
}
