package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RegisterRequest is the request body for /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the request body for /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the account and its bearer token.
type AuthResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, &ErrValidation{Field: "credentials", Message: err.Error()})
		return
	}

	exists, err := s.users.EmailExists(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exists {
		s.writeError(w, &ErrEmailAlreadyExists{Email: req.Email})
		return
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.users.Create(r.Context(), req.Email, req.Name, hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if user == nil {
		s.writeError(w, &ErrBackendFailed{Reason: "created account not found"})
		return
	}

	s.issueSession(w, r, http.StatusCreated, user.ID, user.Email, user.Name, user.CreatedAt)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, &ErrValidation{Field: "credentials", Message: err.Error()})
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Same error whether the account is missing or the password is wrong.
	if user == nil || !s.hasher.VerifyPassword(req.Password, user.PasswordHash) {
		s.writeError(w, &ErrInvalidCredentials{})
		return
	}

	s.issueSession(w, r, http.StatusOK, user.ID, user.Email, user.Name, user.CreatedAt)
}

// issueSession generates a token, attaches the subject to the host session,
// and runs a backend eligibility check so a pending local document migrates
// on sign-in.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID, email, name string, createdAt time.Time) {
	token, err := s.jwt.GenerateToken(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.session.SetSubject(id)
	s.sel.Resolve(r.Context())

	s.writeJSON(w, status, AuthResponse{
		UserID:    id,
		Email:     email,
		Name:      name,
		Token:     token,
		CreatedAt: createdAt,
	})
}
