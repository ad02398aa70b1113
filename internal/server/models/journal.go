package models

import "time"

// Journal is a named, per-user collection of entries. DeletedOn is the
// tombstone date; nil means the journal is live.
type Journal struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	NameLower string     `json:"name_lower"`
	DeletedOn *time.Time `json:"deleted_on"`

	// Entries is filled by the service layer, never by the repository.
	Entries []*Entry `json:"entries,omitempty"`
}

func (j *Journal) Tombstoned() bool {
	return j.DeletedOn != nil
}
