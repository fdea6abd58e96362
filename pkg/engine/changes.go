package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/textutil"
)

const defaultFileMode = 0o644

// Change is the text of one document before and after a run.
type Change struct {
	Document program.DocumentID
	Before   string
	After    string
}

// Changes returns the documents whose text differs between before and
// after, in document ID order.
func Changes(before, after *program.Snapshot) []Change {
	var changes []Change

	for _, id := range after.Diff(before) {
		old, hadOld := before.Document(id)
		updated, hasNew := after.Document(id)

		if !hadOld || !hasNew {
			continue
		}

		oldText, newText := old.Text(), updated.Text()
		if oldText == newText {
			continue
		}

		changes = append(changes, Change{Document: id, Before: oldText, After: newText})
	}

	return changes
}

// LinesChanged counts the lines of Before that the run replaced.
func (c Change) LinesChanged() int {
	var n int

	for _, d := range lineDiff(c.Before, c.After) {
		if d.Type == diffmatchpatch.DiffDelete {
			n += textutil.CountLines(d.Text)
		}
	}

	return n
}

// WriteChanges writes every change under root, keeping each file's mode.
func WriteChanges(root string, changes []Change) error {
	for _, change := range changes {
		target := filepath.Join(root, filepath.FromSlash(string(change.Document)))

		mode := os.FileMode(defaultFileMode)
		if info, err := os.Stat(target); err == nil {
			mode = info.Mode().Perm()
		}

		err := os.WriteFile(target, []byte(change.After), mode)
		if err != nil {
			return fmt.Errorf("write %s: %w", change.Document, err)
		}
	}

	return nil
}

// RenderDiff writes a line diff of every change to w.
func RenderDiff(w io.Writer, changes []Change) error {
	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	header := color.New(color.Bold)

	for _, change := range changes {
		if _, err := header.Fprintf(w, "--- a/%s\n+++ b/%s\n", change.Document, change.Document); err != nil {
			return fmt.Errorf("render diff: %w", err)
		}

		for _, d := range lineDiff(change.Before, change.After) {
			var err error

			switch d.Type {
			case diffmatchpatch.DiffDelete:
				err = writeLines(w, removed, "-", d.Text)
			case diffmatchpatch.DiffInsert:
				err = writeLines(w, added, "+", d.Text)
			case diffmatchpatch.DiffEqual:
			}

			if err != nil {
				return fmt.Errorf("render diff: %w", err)
			}
		}
	}

	return nil
}

func lineDiff(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(src, dst, false)

	return dmp.DiffCharsToLines(diffs, lines)
}

func writeLines(w io.Writer, c *color.Color, prefix, text string) error {
	for line := range strings.Lines(text) {
		if _, err := c.Fprint(w, prefix+strings.TrimSuffix(line, "\n")+"\n"); err != nil {
			return err
		}
	}

	return nil
}
