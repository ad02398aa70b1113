package models

import "time"

type Entry struct {
	ID        int64      `json:"id"`
	JournalID int64      `json:"journal_id"`
	Short     string     `json:"short"`
	Long      string     `json:"long"`
	Date      time.Time  `json:"date"`
	DeletedOn *time.Time `json:"deleted_on"`

	Keywords []*Keyword `json:"keywords"`
}

func (e *Entry) Tombstoned() bool {
	return e.DeletedOn != nil
}

// Words returns the entry's keyword words in stored order.
func (e *Entry) Words() []string {
	words := make([]string, 0, len(e.Keywords))
	for _, k := range e.Keywords {
		words = append(words, k.Word)
	}
	return words
}

type Keyword struct {
	ID      int64  `json:"id"`
	EntryID int64  `json:"entry_id"`
	Word    string `json:"word"`
}

// Match modes for EntryFilter.
const (
	MatchAnd = "and"
	MatchOr  = "or"
)

// EntryFilter narrows a keyword search to one user's entries.
type EntryFilter struct {
	UserID           string
	JournalID        *int64
	Keywords         []string
	Mode             string
	DateMin          *time.Time
	DateMax          *time.Time
	IncludeTombstone bool
	Skip             int
	Limit            int
}
