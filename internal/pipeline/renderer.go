package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// Renderer writes results as JSON, Markdown and a terminal summary
type Renderer struct {
	title    lipgloss.Style
	label    lipgloss.Style
	good     lipgloss.Style
	bad      lipgloss.Style
	warn     lipgloss.Style
	box      lipgloss.Style
	sectionH lipgloss.Style
}

// NewRenderer creates a renderer. Without color the summary is plain text.
func NewRenderer(color bool) *Renderer {
	r := &Renderer{}
	if !color {
		plain := lipgloss.NewStyle()
		r.title, r.label, r.good, r.bad, r.warn, r.sectionH = plain, plain, plain, plain, plain, plain
		r.box = plain
		return r
	}

	r.title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	r.label = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	r.good = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00B050"))
	r.bad = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C00000"))
	r.warn = lipgloss.NewStyle().Foreground(lipgloss.Color("#ED7D31"))
	r.sectionH = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4472C4"))
	r.box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)
	return r
}

// RenderJSON writes the result as indented JSON
func (r *Renderer) RenderJSON(result *model.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(result *model.Result, path string) error {
	return os.WriteFile(path, []byte(Markdown(result)), 0644)
}

// Markdown renders the report body
func Markdown(result *model.Result) string {
	var b strings.Builder
	s := result.Summary

	b.WriteString("# Bed Assignment Report\n\n")
	if result.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`, generated %s\n\n", result.RunID, result.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total people | %d |\n", s.Total)
	fmt.Fprintf(&b, "| Placed | %d |\n", s.Placed)
	fmt.Fprintf(&b, "| Unplaced | %d |\n", s.Unplaced)
	fmt.Fprintf(&b, "| Beds | %d (%d bottom) |\n", s.Beds, s.BottomBeds)
	fmt.Fprintf(&b, "| Solver status | %s |\n", statusLabel(s))
	fmt.Fprintf(&b, "| Objective | %d of %d |\n\n", s.Objective, s.Bound)

	if len(s.OrgBuildings) > 0 {
		b.WriteString("## By Organization & Building\n\n")
		b.WriteString("| Organization | Building | Count |\n|---|---|---|\n")
		for _, c := range s.OrgBuildings {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", orDash(c.Org), c.Building, c.Count)
		}
		b.WriteString("\n")
	}

	if len(result.Placements) > 0 {
		b.WriteString("## Placements\n\n")
		b.WriteString("| Building | Room | Name | Org | Group | Floor | Bunk | Attach |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, p := range result.Placements {
			name := p.First + " " + p.Last
			if p.Pinned {
				name += " (pinned)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d | %s | %s |\n",
				p.Building, p.Room, name, orDash(p.Org), orDash(p.Group), p.Floor, p.Bunk.Label(), orDash(p.AttachResolved))
		}
		b.WriteString("\n")
	}

	if len(result.Unplaced) > 0 {
		b.WriteString("## Unplaced\n\n")
		for _, u := range result.Unplaced {
			fmt.Fprintf(&b, "### %s %s\n\n", u.First, u.Last)
			for _, reason := range u.Reasons {
				fmt.Fprintf(&b, "- %s\n", reason)
			}
			b.WriteString("\n")
		}
	}

	if len(result.AttachWarnings) > 0 {
		b.WriteString("## Attach Warnings\n\n")
		b.WriteString("| Person | Attach | Method | Resolution |\n|---|---|---|---|\n")
		for _, w := range result.AttachWarnings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", w.Person, w.AttachText, w.Method, w.Message)
		}
		b.WriteString("\n")
	}

	if len(result.Score.Signals) > 0 {
		b.WriteString("## Soft Constraints\n\n")
		for _, sig := range result.Score.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", sig.Type, sig.Severity, sig.Description)
		}
	}

	return b.String()
}

// RenderSummary prints the short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, result *model.Result) {
	s := result.Summary

	lines := []string{
		r.title.Render("Bed assignment"),
		"",
		fmt.Sprintf("%s %d", r.label.Render("People  "), s.Total),
		fmt.Sprintf("%s %s", r.label.Render("Placed  "), r.good.Render(fmt.Sprint(s.Placed))),
	}

	unplaced := fmt.Sprint(s.Unplaced)
	if s.Unplaced > 0 {
		unplaced = r.bad.Render(unplaced)
	}
	lines = append(lines,
		fmt.Sprintf("%s %s", r.label.Render("Unplaced"), unplaced),
		fmt.Sprintf("%s %d", r.label.Render("Beds    "), s.Beds),
		fmt.Sprintf("%s %s", r.label.Render("Status  "), statusLabel(s)),
	)

	if len(s.OrgBuildings) > 0 {
		lines = append(lines, "", r.sectionH.Render("Org-Building distribution"))
		for _, org := range groupByOrg(s.OrgBuildings) {
			lines = append(lines, "  "+org)
		}
	}

	if n := len(result.AttachWarnings); n > 0 {
		lines = append(lines, "", r.warn.Render(fmt.Sprintf("%d attach warning(s)", n)))
	}

	_, _ = fmt.Fprintln(w, r.box.Render(strings.Join(lines, "\n")))

	for _, u := range result.Unplaced {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", r.bad.Render("✗"), u.First, u.Last)
		for _, reason := range u.Reasons {
			_, _ = fmt.Fprintf(w, "    -> %s\n", reason)
		}
	}
}

func statusLabel(s model.Summary) string {
	label := string(s.Status)
	if s.TimedOut {
		label += " (time limit reached)"
	}
	if s.Cached {
		label += " (cached)"
	}
	return label
}

// groupByOrg renders "Org: Building:n, Building:n" per organization, in
// the order the counts are already sorted in
func groupByOrg(counts []model.OrgBuildingCount) []string {
	var out []string
	current := ""
	var parts []string
	flush := func() {
		if parts != nil {
			out = append(out, fmt.Sprintf("%s: %s", orDash(current), strings.Join(parts, ", ")))
		}
	}
	for i, c := range counts {
		if i == 0 || c.Org != current {
			flush()
			current, parts = c.Org, nil
		}
		parts = append(parts, fmt.Sprintf("%s:%d", c.Building, c.Count))
	}
	flush()
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
