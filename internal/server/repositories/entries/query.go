package entries

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mneme/internal/server/models"
)

// buildFindQuery renders the search for filter. Keywords are expected
// lower-cased and de-duplicated; an empty list applies no keyword filter.
//
// OR matches entries having any of the words. AND counts the distinct
// matching words per entry and requires all of them.
func buildFindQuery(filter models.EntryFilter) (string, []any) {
	var sb strings.Builder
	args := []any{filter.UserID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + entryColumns + `
		 FROM entries e JOIN journals j ON j.id = e.journal_id
		 WHERE j.user_id = $1`)

	if filter.JournalID != nil {
		sb.WriteString(` AND e.journal_id = ` + arg(*filter.JournalID))
	}
	if !filter.IncludeTombstone {
		sb.WriteString(` AND e.deleted_on IS NULL AND j.deleted_on IS NULL`)
	}
	if filter.DateMin != nil {
		sb.WriteString(` AND e.date > ` + arg(*filter.DateMin))
	}
	if filter.DateMax != nil {
		sb.WriteString(` AND e.date < ` + arg(*filter.DateMax))
	}

	if len(filter.Keywords) > 0 {
		words := arg(filter.Keywords)
		switch filter.Mode {
		case models.MatchAnd:
			sb.WriteString(` AND (SELECT COUNT(DISTINCT k.word) FROM keywords k WHERE k.entry_id = e.id AND k.word = ANY(` +
				words + `)) = ` + arg(len(filter.Keywords)))
		default:
			sb.WriteString(` AND EXISTS (SELECT 1 FROM keywords k WHERE k.entry_id = e.id AND k.word = ANY(` + words + `))`)
		}
	}

	sb.WriteString(` ORDER BY e.id OFFSET ` + arg(filter.Skip))
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ` + arg(filter.Limit))
	}

	return sb.String(), args
}
