package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type journalRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

type renameJournalRequest struct {
	NewName string `json:"new_name" validate:"required,max=256"`
}

type reviveJournalRequest struct {
	NewName *string `json:"new_name" validate:"omitempty,max=256"`
}

func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	journal, err := h.journals.Create(r.Context(), currentUser(r).ID, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, journal)
}

func (h *Handler) ListJournals(w http.ResponseWriter, r *http.Request) {
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

	journals, err := h.journals.List(r.Context(), currentUser(r).ID, deleted, skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journals)
}

func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	deleted, err := queryBool(r, "deleted")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	journal, err := h.journals.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), deleted)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}

func (h *Handler) RenameJournal(w http.ResponseWriter, r *http.Request) {
	var req renameJournalRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	journal, err := h.journals.Rename(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), req.NewName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}

func (h *Handler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	now, err := queryBool(r, "now")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.journals.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), now); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReviveJournal(w http.ResponseWriter, r *http.Request) {
	var req reviveJournalRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	journal, err := h.journals.Revive(r.Context(), currentUser(r).ID, chi.URLParam(r, "journal"), req.NewName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}
