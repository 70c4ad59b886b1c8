package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cronguard/cronguard/internal/log"
	"github.com/cronguard/cronguard/internal/model"
	"github.com/cronguard/cronguard/internal/wrap"
)

var (
	flagStateDir    string
	flagLockFile    string
	flagNumRetries  int
	flagRetrySecs   int
	flagIgnoreRetry bool
	flagNumFails    int
	flagFirstFail   bool
	flagBackoff     bool
	flagPath        string
	flagBashString  bool
	flagTimeout     int
	flagFuzz        int
	flagQuiet       bool
	flagDebug       bool
	flagConfigFile  string // value of --config flag
	flagEvery       string
	flagCron        string

	flagSyslog    bool
	flagSyslogFac string
	flagSyslogPri string

	flagSendMail   bool
	flagAlsoNormal bool
	flagEmailFrom  string
	flagRecipients []string
	flagSubject    string
	flagSMTPServer string
	flagSMTPPort   int
	flagTLS        bool
	flagStartTLS   bool
	flagUsername   string
	flagPassword   string
	flagCredsFile  string
)

func main() {
	f := rootCmd.Flags()
	f.StringVarP(&flagStateDir, "state-dir", "d", model.DefaultStateDir, "directory for state files")
	f.StringVarP(&flagLockFile, "lock-file", "F", "", "explicit lock file path (default derives from the command)")
	f.IntVarP(&flagNumRetries, "num-retries", "r", 0, "lock acquisition retries")
	f.IntVarP(&flagRetrySecs, "retry-secs", "s", model.DefaultRetrySecs, "seconds between lock retries")
	f.BoolVarP(&flagIgnoreRetry, "ignore-retry-fails", "i", false, "skip the run silently when the lock cannot be acquired")
	f.IntVarP(&flagNumFails, "num-fails", "n", model.DefaultNumFails, "consecutive failures before a report goes out")
	f.BoolVarP(&flagFirstFail, "first-fail", "f", false, "additionally report the very first failure")
	f.BoolVarP(&flagBackoff, "backoff", "b", false, "report at num-fails, then double the distance each time")
	f.StringVarP(&flagPath, "path", "p", "", "PATH for the wrapped command")
	f.BoolVarP(&flagBashString, "bash-string", "g", false, "run CMD as a single string through bash -c")
	f.IntVarP(&flagTimeout, "timeout", "t", 0, "seconds before the command is killed, 0 disables")
	f.IntVarP(&flagFuzz, "fuzz", "z", 0, "random 0..N second delay before the run")
	f.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress the success report")
	f.BoolVarP(&flagDebug, "debug", "D", false, "debug logging")
	f.StringVar(&flagConfigFile, "config", "", "YAML config file")
	f.StringVar(&flagEvery, "every", "", "run on an internal schedule, e.g. 5m or 1h30m")
	f.StringVar(&flagCron, "cron", "", "run on an internal 5-field cron schedule")

	f.BoolVarP(&flagSyslog, "syslog", "S", false, "log every failure to syslog")
	f.StringVarP(&flagSyslogFac, "syslog-fac", "C", model.DefaultFacility, "syslog facility")
	f.StringVarP(&flagSyslogPri, "syslog-pri", "P", model.DefaultSeverity, "syslog severity")

	f.BoolVarP(&flagSendMail, "send-mail", "M", false, "email failure reports")
	f.BoolVarP(&flagAlsoNormal, "also-normal-output", "N", false, "print mailed reports to stdout too")
	f.StringVarP(&flagEmailFrom, "email-from", "E", "", "sender address (default user@hostname)")
	f.StringArrayVarP(&flagRecipients, "recipient", "R", nil, "report recipient, repeatable")
	f.StringVarP(&flagSubject, "subject", "J", model.DefaultSubject, "report subject")
	f.StringVarP(&flagSMTPServer, "smtp-server", "X", model.DefaultSMTPServer, "SMTP server")
	f.IntVarP(&flagSMTPPort, "smtp-port", "T", model.DefaultSMTPPort, "SMTP port")
	f.BoolVarP(&flagTLS, "tls", "L", false, "implicit TLS from the first byte")
	f.BoolVarP(&flagStartTLS, "starttls", "Z", false, "require STARTTLS")
	f.StringVarP(&flagUsername, "username", "U", "", "SMTP username")
	f.StringVarP(&flagPassword, "password", "W", "", "SMTP password")
	f.StringVarP(&flagCredsFile, "creds-file", "Y", "", "file containing USERNAME:PASSWORD")

	// never print messages
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("cronguard failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "cronguard [flags] -- CMD [ARGS...]",
	Short:        "Wraps cron commands: one at a time, failures buffered and reported on a cadence",
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         doRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version prints the cronguard build information",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("cronguard: version info not available")
			return
		}
		fmt.Printf("cronguard: %s\n", info.Main.Version)
		fmt.Printf("go:        %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:    %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:      %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:     %s\n", s.Value)
			}
		}
	},
}

func doRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	// children inherit it, cron environments rarely carry a usable PATH
	if cfg.Path != "" {
		if err := os.Setenv("PATH", cfg.Path); err != nil {
			return fmt.Errorf("overriding PATH: %w", err)
		}
	}

	attrs := slog.Group("cronguard",
		slog.String("run_id", uuid.NewString()),
		slog.Int("pid", os.Getpid()),
	)
	ctx := log.ContextAttrs(cmd.Context(), attrs)

	m, err := wrap.New(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Schedule.Enabled() {
		return wrap.RunScheduled(ctx, m, cfg.Schedule)
	}
	return m.RunOnce(ctx)
}
