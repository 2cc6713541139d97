package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/a14a-org/claudeskill-manager/internal/auth"
	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

func (s *Server) handleGetKeyring(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	st := s.storesFor(r.Context(), claims.Account)

	kr, err := st.keyring.GetKeyring(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "keyring not initialized", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "load keyring failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, kr)
}

func (s *Server) handlePutKeyring(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}

	var kr storage.Keyring
	if err := json.NewDecoder(r.Body).Decode(&kr); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if len(kr.Salt) != crypto.SaltSize {
		http.Error(w, "bad salt length", http.StatusBadRequest)
		return
	}
	if len(kr.Wrapped) == 0 || len(kr.RecoveryWrapped) == 0 {
		http.Error(w, "wrapped key blobs required", http.StatusBadRequest)
		return
	}
	// Every client derives with these; a zero iteration or lane count would
	// make the stored keyring permanently un-unlockable.
	if err := kr.KDF().Validate(); err != nil {
		http.Error(w, "bad kdf parameters", http.StatusBadRequest)
		return
	}

	st := s.storesFor(r.Context(), claims.Account)

	// A passphrase change rewraps under the same account salt. A different
	// salt means a full re-initialization, which would orphan every version
	// already stored, so it has to be asked for explicitly.
	existing, err := st.keyring.GetKeyring(r.Context())
	if err == nil && !bytes.Equal(existing.Salt, kr.Salt) && r.URL.Query().Get("force") != "1" {
		http.Error(w, "keyring salt mismatch; pass force=1 to reinitialize", http.StatusConflict)
		return
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "load keyring failed", http.StatusInternalServerError)
		return
	}

	if err := st.keyring.PutKeyring(r.Context(), kr); err != nil {
		http.Error(w, "store keyring failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append(claims.Account, "keyring update")
	w.WriteHeader(http.StatusNoContent)
}
