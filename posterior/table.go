package posterior

import (
	"bytes"
	"fmt"
	"strings"
)

// EffectTable renders per-NPI effect estimates as a fixed-width text
// table: one row per NPI, with the median percentage reduction of R
// and its 95% credible interval.
type EffectTable struct {

	// Title
	Title string

	// NPI names, one per row.
	Names []string

	// Reduction[i] is the posterior of NPI i's percentage reduction
	// of R when fully active.
	Reduction []Interval

	// Values at the top of the summary, as label/value pairs.
	Top []string

	// Messages displayed below the table.
	Msg []string

	// Total width of the table
	tw int
}

// Draw a line constructed of the given character filling the width of
// the table.
func (t *EffectTable) line(c string) string {
	return strings.Repeat(c, t.tw) + "\n"
}

// Construct the upper part of the table, which contains summary
// values for the fit.
func (t *EffectTable) top(gap int) string {

	w := []int{0, 0}

	for j, x := range t.Top {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b bytes.Buffer

	for j, x := range t.Top {
		c := fmt.Sprintf("%%-%ds", w[j%2])
		b.WriteString(fmt.Sprintf(c, x))
		if j%2 == 1 {
			b.WriteString("\n")
		} else {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}

	if len(t.Top)%2 == 1 {
		b.WriteString("\n")
	}

	return b.String()
}

// String returns the table as a string.
func (t *EffectTable) String() string {

	if len(t.Names) != len(t.Reduction) {
		panic(fmt.Sprintf("posterior: %d NPI names for %d intervals", len(t.Names), len(t.Reduction)))
	}

	cols := []string{"NPI", "Median(%)", "2.5%(%)", "97.5%(%)"}

	rows := make([][]string, len(t.Names))
	wx := make([]int, len(cols))
	for j, c := range cols {
		wx[j] = len(c)
	}
	for i, name := range t.Names {
		iv := t.Reduction[i]
		rows[i] = []string{
			name,
			fmt.Sprintf("%.1f", iv.Median),
			fmt.Sprintf("%.1f", iv.Lower),
			fmt.Sprintf("%.1f", iv.Upper),
		}
		for j, cell := range rows[i] {
			if len(cell) > wx[j] {
				wx[j] = len(cell)
			}
		}
	}

	gap := 6

	t.tw = 0
	for _, w := range wx {
		t.tw += w + gap
	}
	if t.tw < len(t.Title) {
		t.tw = len(t.Title)
	}

	var buf bytes.Buffer

	// Center the title
	kr := (t.tw - len(t.Title)) / 2
	if kr < 0 {
		kr = 0
	}
	buf.WriteString(strings.Repeat(" ", kr))
	buf.WriteString(t.Title)
	buf.WriteString("\n")

	buf.WriteString(t.line("="))
	if len(t.Top) > 0 {
		buf.WriteString(t.top(10))
	}
	buf.WriteString(t.line("-"))

	for j, c := range cols {
		f := fmt.Sprintf("%%%ds", wx[j]+gap)
		buf.WriteString(fmt.Sprintf(f, c))
	}
	buf.WriteString("\n")
	buf.WriteString(t.line("-"))

	for _, row := range rows {
		for j, cell := range row {
			f := fmt.Sprintf("%%%ds", wx[j]+gap)
			buf.WriteString(fmt.Sprintf(f, cell))
		}
		buf.WriteString("\n")
	}
	buf.WriteString(t.line("-"))

	for _, msg := range t.Msg {
		buf.WriteString(msg + "\n")
	}

	return buf.String()
}
