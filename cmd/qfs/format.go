package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/qfs-io/qfs/internal/pathutil"
)

// formatBytes renders n with the same KB/MB/GB thresholds and one
// decimal place as the reference CLI's format_bytes.
func formatBytes(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// formatLsTime mirrors `ls -l`: a recent modification time (within the
// last ~180 days) shows month/day/hour:minute; an older one shows
// month/day/year instead, since the hour would stop being useful once
// the file ages out of the recent window.
func formatLsTime(t time.Time) string {
	const recentWindow = 180 * 24 * time.Hour
	if time.Since(t) < recentWindow {
		return t.Format("Jan _2 15:04")
	}
	return t.Format("Jan _2  2006")
}

// parseLsPath splits a `qfs ls` argument into an optional collection
// name and a path prefix within it. An empty or "/" argument, or one
// with no collection component, lists every collection instead of a
// collection's contents.
func parseLsPath(raw string) (collection, prefix string, hasCollection bool) {
	clean := pathutil.ParseQfsURI(strings.TrimSpace(raw))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" {
		return "", "", false
	}
	parts := strings.SplitN(clean, "/", 2)
	collection = parts[0]
	if len(parts) == 2 {
		prefix = strings.TrimSuffix(parts[1], "/")
	}
	return collection, prefix, true
}

// parseContextPath splits a `qfs context` path argument the same way
// SetContext/RemoveContext expect: "/" is the global root, a bare name
// is a collection's own root, and "name/sub/path" is a prefix within it.
func parseContextPath(raw string) (collection, pathPrefix string) {
	clean := pathutil.ParseQfsURI(strings.TrimSpace(raw))
	if clean == "" || clean == "/" {
		return "", "/"
	}
	clean = strings.TrimPrefix(clean, "/")
	parts := strings.SplitN(clean, "/", 2)
	collection = parts[0]
	if len(parts) == 2 && parts[1] != "" {
		return collection, "/" + parts[1]
	}
	return collection, "/"
}
