// Package scanner walks a collection root and yields candidate files,
// applying the fixed deny-list, dotfile skip, and user include/exclude
// globs described by the store contract.
package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/qfs-io/qfs/internal/qerr"
)

// excludedDirs is the fixed deny-list of build/VCS directories that are
// never descended into, regardless of user patterns.
var excludedDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	".git":         true,
	".hg":          true,
	".svn":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".nuxt":        true,
}

// Entry describes one scanned regular file.
type Entry struct {
	AbsolutePath string
	RelativePath string
	ModTime      time.Time
	Size         int64
}

// includePattern is one compiled include glob, plus (for patterns spelled
// with a "**/" prefix) the suffix pattern compiled on its own so it can be
// matched against the bare filename or any path suffix too — gobwas/glob's
// own "**/*.md" still requires a literal '/' before the match, which drops
// every root-level file, so the "**/" rule is applied by hand here.
type includePattern struct {
	full   glob.Glob
	suffix glob.Glob // nil unless the pattern started with "**/"
}

// Scanner walks Root, applying Include/Exclude glob patterns.
type Scanner struct {
	Root    string
	include []includePattern
	exclude []glob.Glob
}

// New compiles include/exclude patterns and returns a Scanner. A pattern
// that fails to compile is reported as a ConfigError at construction time,
// not silently during the walk.
func New(root string, include, exclude []string) (*Scanner, error) {
	s := &Scanner{Root: root}
	for _, p := range include {
		low := strings.ToLower(p)
		g, err := glob.Compile(low, '/')
		if err != nil {
			return nil, qerr.ConfigError_("invalid include pattern: "+p, err)
		}
		ip := includePattern{full: g}
		if strings.HasPrefix(low, "**/") {
			sg, err := glob.Compile(low[3:], '/')
			if err != nil {
				return nil, qerr.ConfigError_("invalid include pattern: "+p, err)
			}
			ip.suffix = sg
		}
		s.include = append(s.include, ip)
	}
	for _, p := range exclude {
		g, err := glob.Compile(strings.ToLower(p), '/')
		if err != nil {
			return nil, qerr.ConfigError_("invalid exclude pattern: "+p, err)
		}
		s.exclude = append(s.exclude, g)
	}
	return s, nil
}

// Scan walks the root and returns every matching regular file,
// descending into symlinked directories and reporting symlinked files
// as entries too. filepath.WalkDir alone won't do this — it classifies
// every symlink by its link type, not its target — so directory entries
// are followed with an explicit os.Stat and a visited-directory set
// breaks any symlink cycle.
func (s *Scanner) Scan() ([]Entry, error) {
	var out []Entry
	visited := make(map[string]bool)
	if err := s.walk(s.Root, visited, &out); err != nil {
		return nil, qerr.Io_("scan failed", err)
	}
	return out, nil
}

func (s *Scanner) walk(dir string, visited map[string]bool, out *[]Entry) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if visited[real] {
		return nil
	}
	visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, d := range entries {
		path := filepath.Join(dir, d.Name())
		info, err := os.Stat(path) // follows symlinks; Lstat would not
		if err != nil {
			continue
		}

		if info.IsDir() {
			if isExcludedDir(d.Name()) {
				continue
			}
			if err := s.walk(path, visited, out); err != nil {
				return err
			}
			continue
		}

		if isDotfile(d.Name()) {
			continue
		}
		rel, relErr := filepath.Rel(s.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if s.isUserExcluded(rel) {
			continue
		}
		if !s.matches(rel, d.Name()) {
			continue
		}
		*out = append(*out, Entry{
			AbsolutePath: path,
			RelativePath: rel,
			ModTime:      info.ModTime(),
			Size:         info.Size(),
		})
	}
	return nil
}

// ScanSince is Scan filtered to entries modified strictly after since.
func (s *Scanner) ScanSince(since time.Time) ([]Entry, error) {
	entries, err := s.Scan()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if e.ModTime.After(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func isDotfile(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

func isExcludedDir(name string) bool {
	return excludedDirs[name]
}

func (s *Scanner) isUserExcluded(rel string) bool {
	low := strings.ToLower(rel)
	for _, g := range s.exclude {
		if g.Match(low) {
			return true
		}
	}
	return false
}

// matches applies the include-pattern rule: empty list matches everything;
// otherwise any pattern matching the relative path or the bare filename
// matches, and patterns spelled with a "**/" prefix additionally get a
// second attempt against any suffix of the path.
func (s *Scanner) matches(rel, name string) bool {
	if len(s.include) == 0 {
		return true
	}
	lowRel := strings.ToLower(rel)
	lowName := strings.ToLower(name)
	for _, p := range s.include {
		if p.suffix != nil && (p.suffix.Match(lowName) || p.suffix.Match(lowRel)) {
			return true
		}
		if p.full.Match(lowRel) || p.full.Match(lowName) {
			return true
		}
	}
	return false
}
