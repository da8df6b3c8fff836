// Package diff renders readable differences between expected and actual values for test failures.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// Values pretty prints both values with exported fields only and returns their line diff, or ""
// when they print the same.
func Values[T any](want T, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)
	return Lines(printer.Sprint(want), printer.Sprint(got))
}

// Lines returns a line diff turning got into want, or "" when they are equal.
func Lines(want, got string) string {
	d := diff.Diff(got, want)
	if d == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nto convert ACTUAL into EXPECTED:\n\n")
	b.WriteString("add:    +\n")
	b.WriteString("remove: -\n\n")
	b.WriteString(d)
	return b.String()
}
