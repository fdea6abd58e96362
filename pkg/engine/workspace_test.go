package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/namefix/pkg/engine"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

func TestLoadWorkspace(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/a.cs":          "class A { }\n",
		"src/nested/b.cs":   "class B { }\n",
		"src/legacy.vb":     "Module M\nEnd Module\n",
		"README.md":         "# readme\n",
		"obj/generated.cs":  "class G { }\n",
		"src/a.Designer.cs": "class D { }\n",
	})

	ws, err := engine.LoadWorkspace(context.Background(), root, engine.LoadOptions{
		Exclude: []string{"obj/**", "*.Designer.cs"},
		Workers: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []program.DocumentID{"src/a.cs", "src/legacy.vb", "src/nested/b.cs"}, ws.Snapshot.DocumentIDs())
	assert.Equal(t, []engine.SkippedFile{{Path: "src/legacy.vb", Reason: engine.SkipUnsupported}}, ws.Skipped)

	doc, ok := ws.Snapshot.Document("src/a.cs")
	require.True(t, ok)
	assert.Equal(t, syntax.CSharp, doc.Dialect)
	assert.Equal(t, "class A { }\n", doc.Text())

	vb, ok := ws.Snapshot.Document("src/legacy.vb")
	require.True(t, ok)
	assert.Equal(t, syntax.VisualBasic, vb.Dialect)
	assert.Equal(t, "Module M\nEnd Module\n", vb.Text())
}

func TestLoadWorkspace_Extensions(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.cs": "class A { }\n",
		"b.vb": "Module M\nEnd Module\n",
	})

	ws, err := engine.LoadWorkspace(context.Background(), root, engine.LoadOptions{Extensions: []string{".cs"}})
	require.NoError(t, err)

	assert.Equal(t, []program.DocumentID{"a.cs"}, ws.Snapshot.DocumentIDs())
	assert.Empty(t, ws.Skipped)
}

func TestLoadWorkspace_MaxFileSize(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"small.cs": "class S { }\n",
		"large.cs": "class L { " + strings.Repeat("int f; ", 400) + "}\n",
	})

	ws, err := engine.LoadWorkspace(context.Background(), root, engine.LoadOptions{MaxFileSize: "1KB"})
	require.NoError(t, err)

	assert.Equal(t, []program.DocumentID{"small.cs"}, ws.Snapshot.DocumentIDs())
	assert.Equal(t, []engine.SkippedFile{{Path: "large.cs", Reason: engine.SkipTooLarge}}, ws.Skipped)
}

func TestLoadWorkspace_InvalidMaxFileSize(t *testing.T) {
	t.Parallel()

	_, err := engine.LoadWorkspace(context.Background(), t.TempDir(), engine.LoadOptions{MaxFileSize: "lots"})
	require.ErrorIs(t, err, engine.ErrInvalidMaxFileSize)
}

func TestLoadWorkspace_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := engine.LoadWorkspace(context.Background(), filepath.Join(t.TempDir(), "missing"), engine.LoadOptions{})
	require.Error(t, err)
}
