// Package commands is the studyflow command tree.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/and161185/studyflow/internal/app"
	"github.com/and161185/studyflow/internal/client"
	"github.com/and161185/studyflow/internal/config"
	"github.com/and161185/studyflow/internal/notify"
	"github.com/and161185/studyflow/internal/state"
)

// reportedError marks a failure the user has already seen as a notification.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// env is what a command runs with. The connection is opened on first use.
type env struct {
	v       *viper.Viper
	verbose bool

	cfg   config.Client
	log   *zap.Logger
	cache *state.Cache
	bus   *notify.Bus
	out   *printer
	in    *bufio.Reader

	conn     *client.Conn
	sessions *client.Sessions
	plans    *client.Plans
	shell    *app.Shell
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.v)
	if err != nil {
		return err
	}
	e.cfg = cfg

	if e.verbose {
		if e.log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	} else {
		e.log = zap.NewNop()
	}

	if e.cache, err = state.Open(cfg.StateDir); err != nil {
		return err
	}
	e.out = newPrinter(cmd.OutOrStdout())
	e.in = bufio.NewReader(cmd.InOrStdin())
	if t, err := e.cache.Theme(); err == nil && t != "" {
		e.out.theme = app.Theme(t)
	}
	e.bus = notify.NewBus()
	e.bus.Subscribe(func(n notify.Notification, ok bool) {
		if ok {
			e.out.toast(n)
		}
	})
	return nil
}

// connect dials the backend, restores a cached session and builds the shell.
func (e *env) connect(ctx context.Context) error {
	if e.conn != nil {
		return nil
	}
	conn, err := client.Dial(e.cfg)
	if err != nil {
		return fmt.Errorf("dial %s: %w", e.cfg.Addr, err)
	}
	e.conn = conn
	e.sessions = client.NewSessions(conn, e.cache, e.log)
	e.plans = client.NewPlans(conn, e.log)
	if _, err := e.sessions.Restore(ctx); err != nil {
		e.log.Debug("restore session", zap.Error(err))
	}
	e.shell = app.NewShell(e.sessions, e.plans, e.bus, e.cache, e.log)
	return nil
}

// ask prints label and reads one line from the command input.
func (e *env) ask(label string) (string, error) {
	e.out.prompt(label)
	line, err := e.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// orAsk returns v, or asks for it when it is empty.
func (e *env) orAsk(v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	return e.ask(label)
}

// requireSession fails unless a session was restored.
func (e *env) requireSession() error {
	if e.sessions.Current() == nil {
		return errors.New("not logged in (run: studyflow login)")
	}
	return nil
}

func (e *env) close() {
	if e.shell != nil {
		e.shell.Stop()
	}
	if e.bus != nil {
		e.bus.Close()
	}
	if e.conn != nil {
		_ = e.conn.Close()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

// timeout bounds a single request.
func (e *env) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := e.cfg.Timeout
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Execute runs the command line in args and releases every resource afterwards.
func Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	e := &env{v: config.New()}
	defer e.close()

	cmd := newRoot(e)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext(ctx)
}

func newRoot(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "studyflow",
		Short:         "Plan study sessions and get reminded before they start.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("addr", "localhost:8443", "server address")
	pf.String("cacert", "", "CA certificate (PEM)")
	pf.Bool("insecure", false, "skip certificate verification (dev)")
	pf.Bool("plaintext", false, "connect without TLS (dev)")
	pf.String("state-dir", state.DefaultDir, "directory for the local session and preferences")
	pf.Duration("timeout", 30*time.Second, "per-request timeout")
	pf.BoolVarP(&e.verbose, "verbose", "v", false, "debug logging to stderr")
	for key, flag := range map[string]string{
		config.KeyAddr:      "addr",
		config.KeyCACert:    "cacert",
		config.KeyInsecure:  "insecure",
		config.KeyPlaintext: "plaintext",
		config.KeyStateDir:  "state-dir",
		config.KeyTimeout:   "timeout",
	} {
		_ = e.v.BindPFlag(key, pf.Lookup(flag))
	}

	addSignUp(cmd, e)
	addLogin(cmd, e)
	addLogout(cmd, e)
	addResetPassword(cmd, e)
	addWhoAmI(cmd, e)
	addPlans(cmd, e)
	addAdd(cmd, e)
	addEdit(cmd, e)
	addRemove(cmd, e)
	addDashboard(cmd, e)
	addPlanner(cmd, e)
	addTheme(cmd, e)
	addVersion(cmd)
	return cmd
}
