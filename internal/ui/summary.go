package ui

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

// CallSummary is the recap printed after leaving a room.
type CallSummary struct {
	Room         string
	Duration     string
	Participants int
	ChatMessages int
}

// RenderCallSummary prints the summary as a table.
func RenderCallSummary(s CallSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Room", s.Room},
		{"Duration", s.Duration},
		{"Participants", s.Participants},
		{"Chat messages", s.ChatMessages},
	})
	t.Render()
}
