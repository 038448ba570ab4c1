package http

import (
	"encoding/json"
	"net/http"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		NewJSONResponse().Status(http.StatusBadRequest).Error("invalid body").Write(w, r)
		return
	}

	token, err := s.authSvc.Signup(r.Context(), body.Email, body.Password, body.FullName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Payload(authResponse{Token: token}).Write(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		NewJSONResponse().Status(http.StatusBadRequest).Error("invalid body").Write(w, r)
		return
	}

	token, err := s.authSvc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().Payload(authResponse{Token: token}).Write(w, r)
}
