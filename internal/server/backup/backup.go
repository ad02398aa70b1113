// Package backup takes periodic whole-store snapshots and prunes the ones
// that fell out of the retention window.
//
// A snapshot is a JSON document named after the unix second its read began,
// e.g. "1700000000.json". Names that do not follow that pattern are ignored
// by pruning.
package backup

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const Ext = ".json"

// Sink stores snapshot files by name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Name returns the snapshot name for a read started at t.
func Name(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10) + Ext
}

// ParseName extracts the timestamp from a snapshot name. ok is false for
// anything that is not "<unix seconds>.json".
func ParseName(name string) (t time.Time, ok bool) {
	stem, found := strings.CutSuffix(name, Ext)
	if !found || stem == "" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}
