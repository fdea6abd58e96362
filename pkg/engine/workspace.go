// Package engine runs naming rules over a workspace: it loads a directory of
// sources into a program snapshot, threads the snapshot through every
// selected rule and document, and turns the result into file changes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/namefix/pkg/parser"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/safeconv"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
	"github.com/Sumatoshi-tech/namefix/pkg/textutil"
)

// ErrInvalidMaxFileSize is returned when the size limit cannot be parsed.
var ErrInvalidMaxFileSize = errors.New("invalid max file size")

// Skip reasons.
const (
	SkipTooLarge    = "too large"
	SkipBinary      = "binary"
	SkipUnsupported = "unsupported dialect"
)

// kindOpaqueSource is the root kind of documents whose dialect has no
// grammar. Their text is kept as one token so it round-trips untouched.
const kindOpaqueSource = "source_file"

// LoadOptions controls which files LoadWorkspace reads.
type LoadOptions struct {
	// Extensions restricts loading to these file extensions. Empty means
	// every extension with a known dialect.
	Extensions []string
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the root and against base names. A pattern ending in
	// "/**" excludes a whole directory.
	Exclude []string
	// MaxFileSize is a human-readable limit such as "1MB". Empty means no limit.
	MaxFileSize string
	// Workers bounds parallel parsing. Zero means GOMAXPROCS.
	Workers int
	// Parser is reused when set.
	Parser *parser.Parser
}

// SkippedFile is a file the loader saw but did not parse.
type SkippedFile struct {
	Path   string
	Reason string
}

// Workspace is a loaded directory.
type Workspace struct {
	Root     string
	Snapshot *program.Snapshot
	Skipped  []SkippedFile
}

type candidate struct {
	rel     string
	abs     string
	dialect syntax.Dialect
}

// LoadWorkspace walks root, parses every matching source file in parallel
// and builds the initial snapshot. Document IDs are slash-separated paths
// relative to root.
func LoadWorkspace(ctx context.Context, root string, opts LoadOptions) (*Workspace, error) {
	maxSize, err := parseMaxFileSize(opts.MaxFileSize)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{Root: root}

	candidates, err := collect(root, opts, maxSize, ws)
	if err != nil {
		return nil, err
	}

	p := opts.Parser
	if p == nil {
		p = parser.New()
	}

	docs := make([]program.Document, len(candidates))
	skipped := make([]string, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(opts.Workers))

	for i, c := range candidates {
		g.Go(func() error {
			content, readErr := os.ReadFile(c.abs)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", c.rel, readErr)
			}

			if textutil.IsBinary(content) {
				skipped[i] = SkipBinary

				return nil
			}

			tree, parseErr := p.Parse(gCtx, c.dialect, content)

			switch {
			case errors.Is(parseErr, parser.ErrUnsupportedDialect):
				tree = syntax.NewToken(kindOpaqueSource, string(content))
				skipped[i] = SkipUnsupported
			case parseErr != nil:
				return fmt.Errorf("parse %s: %w", c.rel, parseErr)
			}

			docs[i] = program.Document{
				ID:      program.DocumentID(c.rel),
				Path:    c.abs,
				Dialect: c.dialect,
				Tree:    tree,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := make([]program.Document, 0, len(docs))

	for i, c := range candidates {
		if skipped[i] != "" {
			ws.Skipped = append(ws.Skipped, SkippedFile{Path: c.rel, Reason: skipped[i]})
		}

		if skipped[i] != SkipBinary {
			loaded = append(loaded, docs[i])
		}
	}

	snap, err := program.New(loaded...)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	ws.Snapshot = snap

	return ws, nil
}

func collect(root string, opts LoadOptions, maxSize uint64, ws *Workspace) ([]candidate, error) {
	var candidates []candidate

	err := filepath.WalkDir(root, func(abs string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", abs, relErr)
		}

		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if excluded(rel, entry.IsDir(), opts.Exclude) {
			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.IsDir() {
			return nil
		}

		dialect, ok := parser.DialectForPath(rel)
		if !ok || !extensionAllowed(rel, opts.Extensions) {
			return nil
		}

		if maxSize > 0 {
			info, infoErr := entry.Info()
			if infoErr != nil {
				return fmt.Errorf("stat %s: %w", rel, infoErr)
			}

			if safeconv.MustInt64ToUint64(info.Size()) > maxSize {
				ws.Skipped = append(ws.Skipped, SkippedFile{Path: rel, Reason: SkipTooLarge})

				return nil
			}
		}

		candidates = append(candidates, candidate{rel: rel, abs: abs, dialect: dialect})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return candidates, nil
}

func excluded(rel string, isDir bool, patterns []string) bool {
	base := pathpkg.Base(rel)

	for _, pattern := range patterns {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") || (isDir && matches(dir, base)) {
				return true
			}

			continue
		}

		if matches(pattern, rel) || matches(pattern, base) {
			return true
		}
	}

	return false
}

func matches(pattern, name string) bool {
	ok, err := pathpkg.Match(pattern, name)

	return err == nil && ok
}

func extensionAllowed(rel string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}

	return slices.Contains(extensions, strings.ToLower(pathpkg.Ext(rel)))
}

func parseMaxFileSize(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidMaxFileSize, value, err)
	}

	return size, nil
}

func workerCount(workers int) int {
	if workers > 0 {
		return workers
	}

	return runtime.GOMAXPROCS(0)
}
