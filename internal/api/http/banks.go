package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/eventlog"
)

const maxUploadBytes = 10 << 20

// POST /api/admin/banks
// Multipart upload: "file" is a bank JSON or an XLSX sheet. For XLSX the
// "bank_id" and "title" form fields are required; JSON carries its own.
func UploadBankHandler(pool bank.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "bad multipart form", 400)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field required", 400)
			return
		}
		defer f.Close()

		var b bank.Bank
		switch strings.ToLower(filepath.Ext(hdr.Filename)) {
		case ".json":
			b, err = bank.ParseBank(f)
		case ".xlsx":
			id := r.FormValue("bank_id")
			if id == "" {
				http.Error(w, "bank_id required for xlsx upload", 400)
				return
			}
			b, err = bank.ParseXLSX(f, id, r.FormValue("title"))
		default:
			http.Error(w, "unsupported file type", 400)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}

		rep, err := pool.UpsertBank(r.Context(), b)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = events.Append(r.Context(), eventlog.TypeBankLoaded, b.ID, rep)
		writeJSON(w, http.StatusCreated, rep)
	}
}

// DELETE /api/admin/banks/{bankID}
func DeleteBankHandler(pool bank.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "bankID")
		if err := pool.DeleteBank(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		_ = events.Append(r.Context(), eventlog.TypeBankDeleted, id, nil)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "bank_id": id})
	}
}

// GET /api/admin/banks
func ListBanksHandler(pool bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banks, err := pool.ListBanks(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		if banks == nil {
			banks = []bank.BankInfo{}
		}
		writeJSON(w, http.StatusOK, banks)
	}
}
