package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a14a-org/claudeskill-manager/internal/auth"
)

type signupReq struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type signupResp struct {
	Account string `json:"account"`
}

type loginReq struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type loginResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type changePasswordReq struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.rlSignupIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	name, err := auth.NormalizeAccountName(req.Account)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		http.Error(w, "weak password: "+err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, req.Password)
	if err != nil {
		http.Error(w, "hash password failed", http.StatusInternalServerError)
		return
	}

	if err := s.accounts.Create(r.Context(), &auth.Account{Name: name, PassHash: hash}); err != nil {
		if errors.Is(err, auth.ErrAccountExists) {
			http.Error(w, "account already exists", http.StatusConflict)
			return
		}
		http.Error(w, "create account failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append(name, "signup")
	writeJSONStatus(w, http.StatusCreated, signupResp{Account: name})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.rlLoginIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	name, err := auth.NormalizeAccountName(req.Account)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !s.rlLoginName.allow(name) {
		tooMany(w, 60)
		return
	}

	acct, err := s.accounts.Find(r.Context(), name)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	ok, err := auth.VerifyPassword(req.Password, acct.PassHash)
	if err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	tok, exp, err := s.signer.IssueToken(name)
	if err != nil {
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append(name, "login")
	writeJSON(w, loginResp{Token: tok, ExpiresAt: exp})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}

	var req changePasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	current := strings.TrimSpace(req.Current)
	next := strings.TrimSpace(req.Next)
	if current == "" || next == "" {
		http.Error(w, "current and next passwords required", http.StatusBadRequest)
		return
	}
	if current == next {
		http.Error(w, "new password must differ from current password", http.StatusBadRequest)
		return
	}
	if err := validatePassword(next); err != nil {
		http.Error(w, "weak password: "+err.Error(), http.StatusBadRequest)
		return
	}

	acct, err := s.accounts.Find(r.Context(), claims.Account)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	ok, err := auth.VerifyPassword(current, acct.PassHash)
	if err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, next)
	if err != nil {
		http.Error(w, "hash password failed", http.StatusInternalServerError)
		return
	}
	if err := s.accounts.UpdatePassword(r.Context(), claims.Account, hash); err != nil {
		http.Error(w, "update password failed", http.StatusInternalServerError)
		return
	}

	tok, exp, err := s.signer.IssueToken(claims.Account)
	if err != nil {
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append(claims.Account, "password change")
	writeJSON(w, loginResp{Token: tok, ExpiresAt: exp})
}
