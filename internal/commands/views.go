package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/and161185/studyflow/internal/app"
	model "github.com/and161185/studyflow/internal/model"
)

// viewEvents reports list updates and the terminal error of a view.
type viewEvents struct {
	updated chan struct{}
	failed  chan error
}

func watchList(l *app.LiveList) viewEvents {
	ev := viewEvents{updated: make(chan struct{}, 1), failed: make(chan error, 1)}
	l.OnUpdate(func([]model.Plan) {
		select {
		case ev.updated <- struct{}{}:
		default:
		}
	})
	l.OnError(func(err error) {
		select {
		case ev.failed <- err:
		default:
		}
	})
	return ev
}

// runView mounts page and calls render on every update. Without follow it returns
// after the first render, or when the request timeout expires.
func (e *env) runView(ctx context.Context, page app.Page, l *app.LiveList, follow bool, render func()) error {
	ev := watchList(l)
	e.shell.Navigate(page)
	e.shell.Start(ctx)

	wait := ctx
	if !follow {
		var cancel context.CancelFunc
		wait, cancel = e.timeout(ctx)
		defer cancel()
	}
	for {
		select {
		case <-ev.updated:
			render()
			if !follow {
				return nil
			}
		case err := <-ev.failed:
			return reported(err)
		case <-wait.Done():
			if follow && errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return wait.Err()
		}
	}
}

func addDashboard(topLevel *cobra.Command, e *env) {
	follow := false
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"stats"},
		Short:   "Show plan totals.",
		Example: `
studyflow dashboard
studyflow dashboard --watch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			d := e.shell.Dashboard()
			return e.runView(cmd.Context(), app.PageDashboard, d.List(), follow, func() {
				st := e.shell.State()
				e.out.dashboard(st.DisplayName, st.UserID.String(), d.Stats())
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "keep running and reprint on every change")
	topLevel.AddCommand(cmd)
}

func addPlanner(topLevel *cobra.Command, e *env) {
	once := false
	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Follow your plans and print reminders until interrupted.",
		Example: `
studyflow planner
studyflow planner --once
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			p := e.shell.Planner()
			return e.runView(cmd.Context(), app.PagePlanner, p.List(), !once, func() {
				e.out.plans(p.Plans())
				if once {
					p.CheckReminders()
				}
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the plans, run one reminder pass and exit")
	topLevel.AddCommand(cmd)
}
