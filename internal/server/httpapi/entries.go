package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/mneme/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type keywordRequest struct {
	Word string `json:"word" validate:"required,max=256"`
}

type entryRequest struct {
	Short     string           `json:"short" validate:"required,max=256"`
	Long      string           `json:"long"`
	Date      string           `json:"date" validate:"required"`
	Keywords  []keywordRequest `json:"keywords" validate:"dive"`
	JournalID *int64           `json:"journal_id"`
}

func (req entryRequest) input() services.EntryInput {
	words := make([]string, 0, len(req.Keywords))
	for _, k := range req.Keywords {
		words = append(words, k.Word)
	}
	return services.EntryInput{Short: req.Short, Long: req.Long, Date: req.Date, Keywords: words}
}

type reviveEntryRequest struct {
	NewShort       *string `json:"new_short" validate:"omitempty,max=256"`
	NewJournalName *string `json:"new_journal_name" validate:"omitempty,max=256"`
}

func entryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: entry id must be an integer", errBadRequest)
	}
	return id, nil
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.entries.Create(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	deleted, err := queryBool(r, "deleted")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.entries.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), id, deleted)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req entryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.entries.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), id, req.input(), req.JournalID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	now, err := queryBool(r, "now")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.entries.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), id, now); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReviveEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reviveEntryRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	entry, err := h.entries.Revive(r.Context(), currentUser(r).ID, id, services.ReviveOptions{
		NewShort:       req.NewShort,
		NewJournalName: req.NewJournalName,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SearchEntries takes repeated keywords parameters. method defaults to "or".
func (h *Handler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	deleted, err := queryBool(r, "deleted")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	method := q.Get("method")
	if method == "" {
		method = "or"
	}

	entries, err := h.entries.Search(r.Context(), currentUser(r).ID, services.SearchQuery{
		Keywords:       q["keywords"],
		Method:         method,
		JournalName:    queryString(r, "journal"),
		DateMin:        queryString(r, "date_min"),
		DateMax:        queryString(r, "date_max"),
		IncludeDeleted: deleted,
		Skip:           skip,
		Limit:          limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
