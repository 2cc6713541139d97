package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/a14a-org/claudeskill-manager/internal/auth"
	"github.com/a14a-org/claudeskill-manager/internal/skill"
	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

// pathKey rebuilds the "type:name" skill key from the route. ServeMux
// unescapes path segments before PathValue, so the name must pass the skill
// charset check here; an escaped "../" or ":" would otherwise reach the
// store as part of a key.
func pathKey(r *http.Request) (string, error) {
	t, err := skill.ParseType(r.PathValue("type"))
	if err != nil {
		return "", err
	}
	name := r.PathValue("name")
	if name == "" {
		return "", errors.New("skill name required")
	}
	if !skill.ValidName(name) {
		return "", skill.ErrBadName
	}
	return skill.Key{Type: t, Name: name}.String(), nil
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	st := s.storesFor(r.Context(), claims.Account)

	heads, err := st.versions.ListHeads(r.Context())
	if err != nil {
		http.Error(w, "list skills failed", http.StatusInternalServerError)
		return
	}
	if heads == nil {
		heads = []storage.Head{}
	}
	writeJSON(w, heads)
}

type pushVersionResp struct {
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handlePushVersion(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	key, err := pathKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hash := r.PathValue("hash")
	if !isFullHash(hash) {
		http.Error(w, "hash must be 64 hex characters", http.StatusBadRequest)
		return
	}

	var v storage.Version
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if v.Key != "" && v.Key != key {
		http.Error(w, "body key does not match path", http.StatusBadRequest)
		return
	}
	if v.Hash != "" && v.Hash != hash {
		http.Error(w, "body hash does not match path", http.StatusBadRequest)
		return
	}
	v.Key, v.Hash = key, hash
	if v.Envelope.Ciphertext == "" || v.Envelope.Nonce == "" || v.Envelope.Tag == "" {
		http.Error(w, "envelope required", http.StatusBadRequest)
		return
	}
	if v.Parent != "" && !isFullHash(v.Parent) {
		http.Error(w, "parent must be 64 hex characters", http.StatusBadRequest)
		return
	}

	st := s.storesFor(r.Context(), claims.Account)
	createdAt, err := st.versions.CreateVersion(r.Context(), v)
	if err != nil {
		http.Error(w, "store version failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append(claims.Account, "push "+key+"@"+skill.ShortHash(hash))
	writeJSON(w, pushVersionResp{CreatedAt: createdAt.UTC()})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	key, err := pathKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := s.storesFor(r.Context(), claims.Account)
	v, err := st.versions.GetVersion(r.Context(), key, r.PathValue("hash"))
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "version not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "load version failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	key, err := pathKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	st := s.storesFor(r.Context(), claims.Account)
	vs, err := st.versions.ListVersions(r.Context(), key, limit)
	if err != nil {
		http.Error(w, "list versions failed", http.StatusInternalServerError)
		return
	}
	if vs == nil {
		vs = []storage.Version{}
	}
	writeJSON(w, vs)
}

type setCurrentReq struct {
	Hash string `json:"hash"`
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	key, err := pathKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req setCurrentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if !isFullHash(req.Hash) {
		http.Error(w, "hash must be 64 hex characters", http.StatusBadRequest)
		return
	}

	st := s.storesFor(r.Context(), claims.Account)

	// The pointer may only name a version that exists.
	if _, err := st.versions.GetVersion(r.Context(), key, req.Hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "version not found", http.StatusNotFound)
			return
		}
		http.Error(w, "load version failed", http.StatusInternalServerError)
		return
	}

	if err := st.versions.SetCurrent(r.Context(), key, req.Hash); err != nil {
		http.Error(w, "set current failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append(claims.Account, "current "+key+"@"+skill.ShortHash(req.Hash))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	writeJSON(w, s.audit.Entries(claims.Account))
}
