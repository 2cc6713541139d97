package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("PUT /api/password", s.handleChangePassword)

	s.mux.HandleFunc("GET /api/keyring", s.handleGetKeyring)
	s.mux.HandleFunc("PUT /api/keyring", s.handlePutKeyring)

	s.mux.HandleFunc("GET /api/skills", s.handleListSkills)
	s.mux.HandleFunc("PUT /api/skills/{type}/{name}/versions/{hash}", s.handlePushVersion)
	s.mux.HandleFunc("GET /api/skills/{type}/{name}/versions/{hash}", s.handleGetVersion)
	s.mux.HandleFunc("GET /api/skills/{type}/{name}/versions", s.handleListVersions)
	s.mux.HandleFunc("POST /api/skills/{type}/{name}/current", s.handleSetCurrent)

	s.mux.HandleFunc("GET /api/audit", s.handleAudit)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
