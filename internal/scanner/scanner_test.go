package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelativePath
	}
	sort.Strings(out)
	return out
}

func TestScanAppliesDenyListAndDotfiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "node_modules", "x.md"), "x")
	writeFile(t, filepath.Join(root, ".hidden.md"), "h")
	writeFile(t, filepath.Join(root, "sub", "b.md"), "b")

	s, err := New(root, nil, nil)
	require.NoError(t, err)
	entries, err := s.Scan()
	require.NoError(t, err)
	require.Equal(t, []string{"a.md", "sub/b.md"}, relPaths(entries))
}

func TestScanIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "drafts", "c.md"), "c")

	s, err := New(root, []string{"**/*.md"}, []string{"drafts/**"})
	require.NoError(t, err)
	entries, err := s.Scan()
	require.NoError(t, err)
	require.Equal(t, []string{"a.md"}, relPaths(entries))
}

func TestScanIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.MD"), "r")

	s, err := New(root, []string{"**/*.md"}, nil)
	require.NoError(t, err)
	entries, err := s.Scan()
	require.NoError(t, err)
	require.Equal(t, []string{"README.MD"}, relPaths(entries))
}

func TestScanFollowsSymlinkedDirectory(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "linked.md"), "l")

	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, err := New(root, nil, nil)
	require.NoError(t, err)
	entries, err := s.Scan()
	require.NoError(t, err)
	require.Equal(t, []string{"link/linked.md"}, relPaths(entries))
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	_, err := New(t.TempDir(), []string{"["}, nil)
	require.Error(t, err)
}
