package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"storypack/internal/deps"
	"storypack/internal/ledger"
	"storypack/internal/palette"
	"storypack/internal/tagging"
)

// styledTable returns a writer carrying the house table style.
func styledTable(headers table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	return tw
}

// paletteTable lists the builtin palettes, one column per color role, with
// the default palette marked on its name.
func paletteTable() string {
	roles := palette.Roles()
	headers := table.Row{"Name"}
	for _, role := range roles {
		headers = append(headers, string(role))
	}

	tw := styledTable(headers)
	for _, name := range palette.Builtins() {
		p, _ := palette.Builtin(name)
		label := name
		if name == palette.DefaultName {
			label += " (default)"
		}
		row := table.Row{label}
		for _, role := range roles {
			row = append(row, p.Color(role))
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

// runsTable summarizes packaging runs in the order the ledger returns them,
// newest first.
func runsTable(runs []ledger.Run) string {
	tw := styledTable(table.Row{"Started", "Slug", "Title", "Status", "Duration", "Cover"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			formatRunTime(run.StartedAt),
			run.Slug,
			run.Title,
			run.Status,
			formatRunDuration(run),
			run.CoverPath,
		})
	}
	return tw.Render()
}

// stagesTable details one run's stage ledger.
func stagesTable(events []ledger.StageEvent) string {
	tw := styledTable(table.Row{"Stage", "Status", "Detail", "Duration"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	for _, event := range events {
		tw.AppendRow(table.Row{
			event.Stage,
			event.Status,
			event.Detail,
			event.Duration.Round(time.Millisecond).String(),
		})
	}
	return tw.Render()
}

// systemDepsTable reports each external tool and whether it was found.
func systemDepsTable(statuses []deps.Status) string {
	tw := styledTable(table.Row{"Tool", "Command", "Status", "Notes"})
	for _, status := range statuses {
		state := "ok"
		notes := status.Description
		if !status.Available {
			state = "missing"
			if status.Optional {
				state = "missing (optional)"
			}
			if status.Detail != "" {
				notes = status.Detail
			}
		}
		tw.AppendRow(table.Row{status.Name, status.Command, state, notes})
	}
	return tw.Render()
}

// taggingFailureTable lists the audio files the cover could not be embedded
// into, with the per-file cause.
func taggingFailureTable(report tagging.Report) string {
	tw := styledTable(table.Row{"File", "Error"})
	for _, failure := range report.Failures {
		tw.AppendRow(table.Row{failure.File, failure.Err.Error()})
	}
	return tw.Render()
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatRunDuration(run ledger.Run) string {
	if run.StartedAt.IsZero() || run.EndedAt.IsZero() {
		return "-"
	}
	return run.EndedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
