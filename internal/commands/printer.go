package commands

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/and161185/studyflow/internal/app"
	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

const timeLayout = "2006-01-02 15:04"

type palette struct {
	success, err, info, header, muted *color.Color
}

var palettes = map[app.Theme]palette{
	app.ThemeLight: {
		success: color.New(color.FgGreen),
		err:     color.New(color.FgRed),
		info:    color.New(color.FgBlue),
		header:  color.New(color.Bold, color.Underline),
		muted:   color.New(color.FgBlack),
	},
	app.ThemeDark: {
		success: color.New(color.FgHiGreen),
		err:     color.New(color.FgHiRed),
		info:    color.New(color.FgHiCyan),
		header:  color.New(color.FgHiWhite, color.Bold, color.Underline),
		muted:   color.New(color.FgHiBlack),
	},
}

// printer renders toasts, tables and summaries. Toasts may come from the reminder
// goroutine, so writes are serialised.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	theme app.Theme
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, theme: app.ThemeLight}
}

func (p *printer) colors() palette {
	if pl, ok := palettes[p.theme]; ok {
		return pl
	}
	return palettes[app.ThemeLight]
}

func (p *printer) setTheme(t app.Theme) {
	p.mu.Lock()
	p.theme = t
	p.mu.Unlock()
}

func (p *printer) toast(n notify.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl := p.colors()
	c := pl.info
	switch n.Severity {
	case notify.SeveritySuccess:
		c = pl.success
	case notify.SeverityError:
		c = pl.err
	}
	_, _ = fmt.Fprintln(p.w, c.Sprint(n.Message))
}

func (p *printer) line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) prompt(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "%s: ", label)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func reminderCell(m *int) string {
	if m == nil {
		return "-"
	}
	return strconv.Itoa(*m) + "m"
}

// plans prints one row per plan.
func (p *printer) plans(ps []model.Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl := p.colors()
	if len(ps) == 0 {
		_, _ = fmt.Fprintln(p.w, pl.muted.Sprint("No study plans yet."))
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(pl.header.Sprint("ID"), pl.header.Sprint("SUBJECT"), pl.header.Sprint("TOPIC"),
		pl.header.Sprint("START"), pl.header.Sprint("END"), pl.header.Sprint("REMIND"))
	for _, pn := range ps {
		tbl.AddRow(shortID(pn.ID.String()), pn.Subject, orDash(pn.Topic),
			pn.Start.Local().Format(timeLayout), pn.End.Local().Format(timeLayout), reminderCell(pn.ReminderMinutes))
	}
	_, _ = fmt.Fprintln(p.w, tbl)
}

// plan prints every field of a single plan.
func (p *printer) plan(pn model.Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tbl := uitable.New()
	tbl.Wrap = true
	tbl.AddRow("ID:", pn.ID.String())
	tbl.AddRow("Subject:", pn.Subject)
	tbl.AddRow("Topic:", orDash(pn.Topic))
	tbl.AddRow("Description:", orDash(pn.Description))
	tbl.AddRow("Start:", pn.Start.Local().Format(timeLayout))
	tbl.AddRow("End:", pn.End.Local().Format(timeLayout))
	tbl.AddRow("Reminder:", reminderCell(pn.ReminderMinutes))
	tbl.AddRow("Created:", pn.CreatedAt.Local().Format(time.RFC3339))
	_, _ = fmt.Fprintln(p.w, tbl)
}

// dashboard prints the greeting and the summary counters.
func (p *printer) dashboard(name string, userID string, st app.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl := p.colors()
	_, _ = fmt.Fprintln(p.w, pl.header.Sprintf("Welcome, %s!", name))
	tbl := uitable.New()
	tbl.AddRow("Total Plans:", st.Total)
	tbl.AddRow("Upcoming Plans:", st.Upcoming)
	if userID != "" {
		tbl.AddRow("Your User ID:", pl.muted.Sprint(userID))
	}
	_, _ = fmt.Fprintln(p.w, tbl)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
