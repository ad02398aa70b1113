// Package services implements the mneme use cases on top of the repositories:
// accounts and sessions, the journal/entry lifecycle and keyword search.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
)

// DefaultLimit applies when a caller asks for no limit.
const DefaultLimit = 100

func page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return skip, limit
}

func normalizeName(name string) (string, string) {
	name = strings.TrimSpace(name)
	return name, strings.ToLower(name)
}

// normalizeWords lower-cases and trims words, dropping empties and repeats
// while keeping first-seen order.
func normalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// optional returns nil for a nil or blank string.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func attachKeywords(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, entries []*models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(entries))
	byID := make(map[int64]*models.Entry, len(entries))
	for _, e := range entries {
		e.Keywords = []*models.Keyword{}
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	kws, err := rm.Keywords(db).ListByEntries(ctx, ids)
	if err != nil {
		return err
	}
	for _, k := range kws {
		if e, ok := byID[k.EntryID]; ok {
			e.Keywords = append(e.Keywords, k)
		}
	}
	return nil
}

func attachEntries(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, journals []*models.Journal, includeDeleted bool) error {
	if len(journals) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(journals))
	byID := make(map[int64]*models.Journal, len(journals))
	for _, j := range journals {
		j.Entries = []*models.Entry{}
		ids = append(ids, j.ID)
		byID[j.ID] = j
	}

	entries, err := rm.Entries(db).ListByJournals(ctx, ids, includeDeleted)
	if err != nil {
		return err
	}
	if err := attachKeywords(ctx, rm, db, entries); err != nil {
		return err
	}
	for _, e := range entries {
		if j, ok := byID[e.JournalID]; ok {
			j.Entries = append(j.Entries, e)
		}
	}
	return nil
}

type clock func() time.Time
