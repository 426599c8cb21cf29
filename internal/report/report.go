package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ppiankov/crowdgen/internal/model"
)

// Renderer writes validation reports as JSON, Markdown and console summaries
type Renderer struct {
	out io.Writer

	title    lipgloss.Style
	label    lipgloss.Style
	ok       lipgloss.Style
	warn     lipgloss.Style
	critical lipgloss.Style
	faint    lipgloss.Style
}

// NewRenderer creates a renderer printing summaries to w. Styles degrade to
// plain text when w is not a terminal.
func NewRenderer(w io.Writer) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		out:      w,
		title:    lr.NewStyle().Bold(true),
		label:    lr.NewStyle().Foreground(lipgloss.Color("12")),
		ok:       lr.NewStyle().Foreground(lipgloss.Color("10")),
		warn:     lr.NewStyle().Foreground(lipgloss.Color("11")),
		critical: lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		faint:    lr.NewStyle().Faint(true),
	}
}

// RenderJSON writes the reports to path as indented JSON
func (r *Renderer) RenderJSON(reports []*model.Report, path string) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	if err := writeFile(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the reports to path as a Markdown document
func (r *Renderer) RenderMarkdown(reports []*model.Report, path string) error {
	if err := writeFile(path, []byte(Markdown(reports))); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Markdown formats reports as Markdown tables
func Markdown(reports []*model.Report) string {
	var b strings.Builder
	b.WriteString("# Corpus validation\n\n")
	b.WriteString("| Domain | Samples | Unparsed | Mismatch | Max drift | Converged |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	for _, rep := range reports {
		v := rep.Validation
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %.2fpp | %v |\n",
			rep.Label, humanize.Comma(int64(v.Total)), v.Unparsed, v.Mismatch,
			rep.Score.MaxDeviation, rep.Score.Converged)
	}

	for _, rep := range reports {
		v := rep.Validation
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", rep.Label, rep.Domain)
		for _, d := range []struct {
			name string
			dist model.Distribution
		}{
			{"Tiers", v.Tiers},
			{"Buckets", v.Buckets},
			{"Sentences", v.Sentences},
			{"Clock", v.Clock},
			{"Baseline", v.Baseline},
		} {
			fmt.Fprintf(&b, "### %s\n\n| Key | Count | Share |\n|---|---:|---:|\n", d.name)
			for _, k := range sortedKeys(d.dist) {
				fmt.Fprintf(&b, "| %s | %s | %.1f%% |\n", k, humanize.Comma(int64(d.dist.Counts[k])), d.dist.Percent(k))
			}
			b.WriteString("\n")
		}
		if len(rep.Score.Signals) > 0 {
			b.WriteString("### Signals\n\n")
			for _, s := range rep.Score.Signals {
				fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
			}
		}
		if len(v.Issues) > 0 {
			b.WriteString("\n### Issues\n\n")
			for _, is := range v.Issues {
				fmt.Fprintf(&b, "- #%d %s: %s\n", is.Index, is.Kind, is.Detail)
			}
			if v.Dropped > 0 {
				fmt.Fprintf(&b, "- ... %d more\n", v.Dropped)
			}
		}
	}
	return b.String()
}

// RenderSummary prints a short per-domain summary
func (r *Renderer) RenderSummary(reports []*model.Report) {
	fmt.Fprintln(r.out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(r.out, r.title.Render("  Corpus Validation"))
	fmt.Fprintln(r.out, "═══════════════════════════════════════════════════════════")

	total, failed := 0, 0
	for _, rep := range reports {
		v := rep.Validation
		total += v.Total
		failed += v.Unparsed + v.Mismatch

		mark := r.ok.Render("✓")
		if !rep.Score.Converged {
			mark = r.warn.Render("!")
		}
		if v.Mismatch > 0 {
			mark = r.critical.Render("✗")
		}
		fmt.Fprintf(r.out, "%s %s %s\n", mark, r.label.Render(rep.Label),
			r.faint.Render(fmt.Sprintf("(%s, %s)", rep.Domain, rep.Source)))
		fmt.Fprintf(r.out, "    samples %s  unparsed %d  mismatch %d  max drift %.2fpp\n",
			humanize.Comma(int64(v.Total)), v.Unparsed, v.Mismatch, rep.Score.MaxDeviation)
		fmt.Fprintf(r.out, "    tiers %s\n", r.faint.Render(formatShares(v.Tiers)))

		for _, s := range rep.Score.Signals {
			switch s.Severity {
			case model.SeverityWarning:
				fmt.Fprintf(r.out, "    %s %s\n", r.warn.Render("warning"), s.Description)
			case model.SeverityCritical:
				fmt.Fprintf(r.out, "    %s %s\n", r.critical.Render("critical"), s.Description)
			}
		}
		for _, is := range v.Issues {
			fmt.Fprintf(r.out, "    %s #%d %s\n", r.faint.Render(is.Kind), is.Index, is.Detail)
		}
		if v.Dropped > 0 {
			fmt.Fprintf(r.out, "    %s\n", r.faint.Render(fmt.Sprintf("... %d more issues", v.Dropped)))
		}
	}

	fmt.Fprintln(r.out, "───────────────────────────────────────────────────────────")
	fmt.Fprintf(r.out, "%s domains, %s samples, %s failed checks\n",
		humanize.Comma(int64(len(reports))), humanize.Comma(int64(total)), humanize.Comma(int64(failed)))
}

func formatShares(d model.Distribution) string {
	keys := sortedKeys(d)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", k, d.Percent(k)))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(d model.Distribution) []string {
	keys := make([]string, 0, len(d.Counts))
	for k := range d.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
