package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/repository"

	"github.com/go-chi/chi/v5"
)

// jsonRaw wraps pre-encoded JSON so encoding/json emits it verbatim.
type jsonRaw []byte

func (r jsonRaw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_payload", "malformed request body", nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uint, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "invalid_payload", "invalid "+param, nil)
		return 0, false
	}
	return uint(id), true
}

func pageRequest(r *http.Request) repository.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return repository.PageRequest{Page: page, PageSize: size}
}
