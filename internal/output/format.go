// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"taskgrid/internal/service"
)

// PendingLabel is shown instead of a placeholder id.
const PendingLabel = "NEW"

// DisplayID returns the id shown for a task.
func DisplayID(task service.Task) string {
	if task.IsPending() {
		return PendingLabel
	}
	return task.ID
}

// FormatTask formats a compact task line.
// Format: "{N:>4}  {ID:<10}  {STAGE:<11}  {OWNER:<10}  {DESCRIPTION}\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %-10s  %-11s  %-10s  %s\n",
		num, DisplayID(task), task.Stage, task.Owner, normalizeText(task.Description))
}

// FormatDetail prints every field of one task, one per line.
func FormatDetail(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%-21s %d\n", "#", num)
	fmt.Fprintf(w, "%-21s %s\n", "ID_Jira", task.ID)
	fmt.Fprintf(w, "%-21s %s\n", "state", task.State)
	for _, f := range service.Fields {
		v, _ := task.Get(f.Key)
		fmt.Fprintf(w, "%-21s %s\n", f.Wire, v)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// FormatGrid renders tasks as a table with every field.
// nums holds the row number shown for each task.
func FormatGrid(w io.Writer, nums []int, tasks []service.Task) {
	headers := []string{"#", "ID_Jira"}
	for _, f := range service.Fields {
		headers = append(headers, f.Wire)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i, task := range tasks {
		row := []string{fmt.Sprint(nums[i]), DisplayID(task)}
		for _, f := range service.Fields {
			v, _ := task.Get(f.Key)
			row = append(row, normalizeText(v))
		}
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

// normalizeText replaces line breaks with spaces.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
