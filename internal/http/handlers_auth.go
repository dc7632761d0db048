package http

import (
	"net/http"

	"budget/internal/log"
)

// handleLogin resolves or creates the user and sets the login cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}

	u, err := s.deps.Users.Login(r.Context(), sanitizeInput(req.Username))
	if err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}

	user := toUserJSON(u)
	NewJSONResponse().
		Cookie(loginCookie(u.Username, s.config.CookieSecure)).
		Body(okJSON{OK: true, User: &user}).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Cookie(logoutCookie(s.config.CookieSecure)).
		Body(okJSON{OK: true}).
		Write(w)
}

// handleRegister creates a user; a taken name is a conflict.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpRegister, err)
		return
	}

	u, err := s.deps.Users.Register(r.Context(), sanitizeInput(req.Username))
	if err != nil {
		writeError(w, r, log.OpRegister, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toUserJSON(u)).Write(w)
}
