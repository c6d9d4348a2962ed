package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/raaihank/toolfilter/internal/filter"
)

// Console prints human-readable progress for a filter run
type Console struct {
	w io.Writer
}

// NewConsole creates a console reporter writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

var _ filter.Reporter = (*Console)(nil)

// AllowlistLoaded prints the number of allow-listed tools.
func (c *Console) AllowlistLoaded(n int) {
	fmt.Fprintf(c.w, "Essential tools count: %d\n", n)
}

// BlocksFound prints the number of registrations found in the source.
func (c *Console) BlocksFound(n int) {
	fmt.Fprintf(c.w, "Found %d tool registrations\n", n)
}

// Decision prints one kept or removed marker line.
func (c *Console) Decision(b filter.Block, kept bool) {
	if kept {
		fmt.Fprintf(c.w, "✓ Keeping: %s\n", b.Name)
		return
	}
	fmt.Fprintf(c.w, "✗ Removing: %s\n", b.Name)
}

// Summary prints the final counts and output location.
func (c *Console) Summary(r *filter.Result) {
	fmt.Fprintf(c.w, "\n=== Summary ===\n")
	fmt.Fprintf(c.w, "Kept: %d tools\n", r.KeptCount())
	fmt.Fprintf(c.w, "Removed: %d tools\n", r.RemovedCount())
	if len(r.Missing) > 0 {
		fmt.Fprintf(c.w, "Not found in source: %s\n", strings.Join(r.Missing, ", "))
	}
	if r.Passthrough {
		fmt.Fprintf(c.w, "No tool registrations found, source passed through unchanged\n")
	}
	fmt.Fprintf(c.w, "Size: %s -> %s\n",
		humanize.Bytes(uint64(len(r.Document))),
		humanize.Bytes(uint64(len(r.Output))))
	if r.DryRun {
		fmt.Fprintf(c.w, "Dry run: output not written to %s\n", r.OutputPath)
		return
	}
	fmt.Fprintf(c.w, "Output written to: %s\n", r.OutputPath)
}
