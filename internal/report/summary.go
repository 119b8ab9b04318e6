package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/timmy/bulkimport/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const unknown = "Unknown"

// GroupStats counts outcomes for one window or one data type.
type GroupStats struct {
	Key      string
	Success  int
	Failed   int
	Inserted int
}

// Failure identifies one failed operation.
type Failure struct {
	DataType  string
	MonthName string
	Error     string
}

// Summary aggregates the results of a run.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Found      int
	Inserted   int
	Duplicates int

	// ByWindow is in order of first appearance, which is chronological.
	ByWindow []GroupStats
	// ByDataType is sorted by data type name.
	ByDataType []GroupStats
	Failures   []Failure
}

// Summarize computes totals and groupings. Record counts only include
// successful operations.
func Summarize(results []domain.OperationResult) Summary {
	s := Summary{Total: len(results)}

	byWindow := newGrouper()
	byType := newGrouper()

	for _, r := range results {
		w := byWindow.get(orUnknown(r.MonthName))
		d := byType.get(orUnknown(r.DataType))

		if r.Success {
			s.Succeeded++
			s.Found += r.Found()
			s.Inserted += r.Inserted()
			s.Duplicates += r.Duplicates()

			w.Success++
			w.Inserted += r.Inserted()
			d.Success++
			d.Inserted += r.Inserted()
			continue
		}

		s.Failed++
		w.Failed++
		d.Failed++

		msg := r.Error
		if msg == "" {
			msg = "Unknown error"
		}
		s.Failures = append(s.Failures, Failure{
			DataType:  orUnknown(r.DataType),
			MonthName: orUnknown(r.MonthName),
			Error:     msg,
		})
	}

	s.ByWindow = byWindow.list()
	s.ByDataType = byType.list()
	sort.Slice(s.ByDataType, func(i, j int) bool {
		return s.ByDataType[i].Key < s.ByDataType[j].Key
	})

	return s
}

// Render writes the summary as tables. catalog supplies data type glyphs.
func Render(w io.Writer, s Summary, catalog []domain.DataTypeDescriptor) error {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", 60)

	p.Fprintf(w, "\n%s\n📊 BULK IMPORT SUMMARY\n%s\n", rule, rule)
	p.Fprintf(w, "📈 Operations: %d/%d successful (%d failed)\n", s.Succeeded, s.Total, s.Failed)
	p.Fprintf(w, "📊 Records Found: %d\n", s.Found)
	p.Fprintf(w, "💾 Records Inserted: %d\n", s.Inserted)
	p.Fprintf(w, "🔄 Duplicates Skipped: %d\n", s.Duplicates)

	fmt.Fprintln(w, "\n📅 Results by Month:")
	if err := renderGroups(w, p, "MONTH", s.ByWindow, func(k string) string { return k }); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n📋 Results by Data Type:")
	label := func(k string) string { return domain.GlyphFor(catalog, k) + " " + k }
	if err := renderGroups(w, p, "DATA TYPE", s.ByDataType, label); err != nil {
		return err
	}

	if len(s.Failures) > 0 {
		fmt.Fprintln(w, "\n❌ Failed Operations:")
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  • %s (%s): %s\n", f.DataType, f.MonthName, f.Error)
		}
	}

	return nil
}

func renderGroups(w io.Writer, p *message.Printer, title string, groups []GroupStats, label func(string) string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\tSUCCESS\tFAILED\tRECORDS\t\n", title)
	for _, g := range groups {
		p.Fprintf(tw, "  %s\t%d\t%d\t%d\t\n", label(g.Key), g.Success, g.Failed, g.Inserted)
	}
	return tw.Flush()
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// grouper keeps GroupStats in first-seen order.
type grouper struct {
	index  map[string]int
	groups []*GroupStats
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) get(key string) *GroupStats {
	if i, ok := g.index[key]; ok {
		return g.groups[i]
	}
	g.index[key] = len(g.groups)
	gs := &GroupStats{Key: key}
	g.groups = append(g.groups, gs)
	return gs
}

func (g *grouper) list() []GroupStats {
	out := make([]GroupStats, len(g.groups))
	for i, gs := range g.groups {
		out[i] = *gs
	}
	return out
}
