package models

import "time"

// Snapshot is a point-in-time copy of every table, written by the backup
// rotator.
type Snapshot struct {
	TakenAt  time.Time  `json:"taken_at"`
	Users    []*User    `json:"users"`
	Journals []*Journal `json:"journals"`
	Entries  []*Entry   `json:"entries"`
	Keywords []*Keyword `json:"keywords"`
}
