package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mindwell/internal/apperr"
	"mindwell/internal/auth"
	"mindwell/internal/models"
	"mindwell/internal/store"
)

const minPasswordLength = 8

type AuthHandler struct {
	profiles store.Profiles
	issuer   *auth.Issuer
	logger   *zap.Logger
}

func NewAuthHandler(profiles store.Profiles, issuer *auth.Issuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{profiles: profiles, issuer: issuer, logger: logger}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	credentials
	Role         string  `json:"role"`
	FullName     *string `json:"full_name"`
	Organization *string `json:"organization"`
}

type tokenResponse struct {
	Token    string     `json:"token"`
	Redirect string     `json:"redirect"`
	Profile  ProfileDTO `json:"profile"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	// Counselor and employer accounts see other people's data; they are
	// granted out of band with the grant-role command, never at signup.
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			http.Error(w, "invalid role", http.StatusBadRequest)
			return
		}
		if parsed != models.RoleUser {
			http.Error(w, "role must be granted by an administrator", http.StatusForbidden)
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "could not hash password", http.StatusInternalServerError)
		return
	}

	p := models.Profile{
		Email:        req.Email,
		PasswordHash: string(hashed),
		FullName:     trimmedOrNil(req.FullName),
		Role:         models.RoleUser,
		Organization: trimmedOrNil(req.Organization),
	}
	if err := h.profiles.CreateProfile(r.Context(), &p); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		writeError(w, h.logger, err, "create profile")
		return
	}
	h.respondWithToken(w, http.StatusCreated, p)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	p, err := h.profiles.ProfileByEmail(r.Context(), c.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		writeError(w, h.logger, err, "load profile")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(c.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, http.StatusOK, p)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, p models.Profile) {
	token, err := h.issuer.Issue(p.ID)
	if err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}
	dto := ToProfileDTO(p)
	writeJSON(w, status, tokenResponse{Token: token, Redirect: dto.Redirect, Profile: dto})
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
