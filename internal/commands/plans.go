package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/and161185/studyflow/internal/app"
	model "github.com/and161185/studyflow/internal/model"
)

var errNoPlan = errors.New("no such plan")

// parseTime accepts "2006-01-02 15:04" in local time or RFC 3339.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(timeLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want %q or RFC 3339)", s, timeLayout)
	}
	return t, nil
}

// findPlan resolves ref as a full id or a unique id prefix.
func findPlan(plans []model.Plan, ref string) (model.Plan, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return model.Plan{}, errNoPlan
	}
	var hits []model.Plan
	for _, p := range plans {
		id := p.ID.String()
		if id == ref {
			return p, nil
		}
		if strings.HasPrefix(id, ref) {
			hits = append(hits, p)
		}
	}
	switch len(hits) {
	case 0:
		return model.Plan{}, fmt.Errorf("%w: %s", errNoPlan, ref)
	case 1:
		return hits[0], nil
	default:
		return model.Plan{}, fmt.Errorf("id prefix %q matches %d plans", ref, len(hits))
	}
}

// planFlags are the editable plan fields as command line flags.
type planFlags struct {
	subject, topic, description string
	start, end                  string
	reminder                    int
	noReminder                  bool
}

func (f *planFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.subject, "subject", "", "subject (required)")
	fs.StringVar(&f.topic, "topic", "", "topic")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.start, "start", "", `start time, "2006-01-02 15:04" or RFC 3339 (required)`)
	fs.StringVar(&f.end, "end", "", "end time, same formats as --start (required)")
	fs.IntVar(&f.reminder, "reminder", 0, "remind this many minutes before the start")
}

// apply overwrites the fields of form whose flags were set.
func (f *planFlags) apply(fs *pflag.FlagSet, form app.PlanForm) (app.PlanForm, error) {
	if fs.Changed("subject") {
		form.Subject = f.subject
	}
	if fs.Changed("topic") {
		form.Topic = f.topic
	}
	if fs.Changed("description") {
		form.Description = f.description
	}
	if fs.Changed("start") {
		t, err := parseTime(f.start)
		if err != nil {
			return form, err
		}
		form.Start = t
	}
	if fs.Changed("end") {
		t, err := parseTime(f.end)
		if err != nil {
			return form, err
		}
		form.End = t
	}
	if fs.Changed("reminder") {
		form.ReminderMinutes = model.Minutes(f.reminder)
	}
	if f.noReminder {
		form.ReminderMinutes = nil
	}
	return form, nil
}

// lookup fetches the plans of the session and resolves ref among them.
func (e *env) lookup(ctx context.Context, ref string) (model.Plan, error) {
	ctx, cancel := e.timeout(ctx)
	defer cancel()
	plans, err := e.plans.ListPlans(ctx)
	if err != nil {
		return model.Plan{}, err
	}
	return findPlan(plans, ref)
}

func addPlans(topLevel *cobra.Command, e *env) {
	var show string
	cmd := &cobra.Command{
		Use:     "plans",
		Aliases: []string{"ls"},
		Short:   "List study plans, soonest first.",
		Example: `
studyflow plans
studyflow plans --show 3fa8
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			if show != "" {
				p, err := e.lookup(cmd.Context(), show)
				if err != nil {
					return err
				}
				e.out.plan(p)
				return nil
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			plans, err := e.plans.ListPlans(ctx)
			if err != nil {
				return err
			}
			e.out.plans(plans)
			return nil
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "print every field of the plan with this id or id prefix")
	topLevel.AddCommand(cmd)
}

func addAdd(topLevel *cobra.Command, e *env) {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a study plan.",
		Example: `
studyflow add --subject Math --topic Algebra --start "2026-10-16 10:00" --end "2026-10-16 11:00" --reminder 15
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, err := f.apply(cmd.Flags(), app.PlanForm{})
			if err != nil {
				return err
			}
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			ed := e.shell.Planner().Editor
			ed.SetForm(form)
			return reported(ed.Submit(ctx))
		},
	}
	f.register(cmd.Flags())
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command, e *env) {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a study plan. Unset flags keep their value.",
		Example: `
studyflow edit 3fa8 --topic Geometry --reminder 30
studyflow edit 3fa8 --no-reminder
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			p, err := e.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ed := e.shell.Planner().Editor
			ed.BeginEdit(p)
			form, err := f.apply(cmd.Flags(), ed.Form())
			if err != nil {
				ed.CancelEdit()
				return err
			}
			ed.SetForm(form)

			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			return reported(ed.Submit(ctx))
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().BoolVar(&f.noReminder, "no-reminder", false, "remove the reminder")
	topLevel.AddCommand(cmd)
}

// confirmFrom asks on the command input; anything but y or yes declines.
func confirmFrom(e *env) app.Confirmer {
	return func(p model.Plan) bool {
		ans, err := e.ask(fmt.Sprintf("Are you sure you want to delete the plan for \"%s\"? [y/N]", p.Subject))
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(ans)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func addRemove(topLevel *cobra.Command, e *env) {
	yes := false
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a study plan.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			p, err := e.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			confirm := confirmFrom(e)
			if yes {
				confirm = func(model.Plan) bool { return true }
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			deleted, err := e.shell.Planner().Delete(ctx, p, confirm)
			if err != nil {
				return reported(err)
			}
			if !deleted {
				e.out.line("Nothing deleted.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	topLevel.AddCommand(cmd)
}
