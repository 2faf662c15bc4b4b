package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"todo-service/config"
	"todo-service/middleware"
	"todo-service/models"
	"todo-service/store"
	"todo-service/utils"

	"golang.org/x/crypto/bcrypt"
)

var (
	generateFromPassword   = bcrypt.GenerateFromPassword
	compareHashAndPassword = bcrypt.CompareHashAndPassword
	generateToken          = utils.GenerateToken
)

const defaultRoleName = "USER"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthHandler struct {
	cfg   config.Config
	users store.UserStore
}

func NewAuthHandler(cfg config.Config, users store.UserStore) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users}
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}

	if fields := validateRegistration(req); len(fields) > 0 {
		return middleware.NewValidationError(fields)
	}

	ctx := r.Context()
	usernameTaken, err := h.users.UsernameExists(ctx, req.Username)
	if err != nil {
		log.Printf("Error checking username: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	if usernameTaken {
		return middleware.NewAppError(http.StatusConflict, "Username already exists", nil)
	}

	emailTaken, err := h.users.EmailExists(ctx, req.Email)
	if err != nil {
		log.Printf("Error checking email: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	if emailTaken {
		return middleware.NewAppError(http.StatusConflict, "Email already exists", nil)
	}

	hashedPassword, err := generateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     defaultRoleName,
		Enabled:  true,
	}
	if err := h.users.Create(ctx, user); err != nil {
		// The exists-checks above race with concurrent registrations; the
		// unique constraint is the backstop.
		if errors.Is(err, store.ErrDuplicate) {
			return middleware.NewAppError(http.StatusConflict, "Username or email already exists", err)
		}
		log.Printf("Error inserting user into database: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	token, err := h.issueToken(user)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Could not generate token", err)
	}

	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(authResponse{Token: token, Username: user.Username, Email: user.Email})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}

	if req.Username == "" || req.Password == "" {
		return middleware.NewAppError(http.StatusBadRequest, "Username and password are required", nil)
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return middleware.NewAppError(http.StatusUnauthorized, "Invalid username or password", err)
		}
		log.Printf("Database error: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	if !user.Enabled {
		return middleware.NewAppError(http.StatusUnauthorized, "Invalid username or password", nil)
	}

	if err := compareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return middleware.NewAppError(http.StatusUnauthorized, "Invalid username or password", err)
	}

	token, err := h.issueToken(user)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		return middleware.NewAppError(http.StatusInternalServerError, "Could not generate token", err)
	}

	return json.NewEncoder(w).Encode(authResponse{Token: token, Username: user.Username, Email: user.Email})
}

func (h *AuthHandler) issueToken(user *models.User) (string, error) {
	claims := utils.Claims{
		Username: user.Username,
		Role:     user.Role,
	}
	return generateToken(claims, h.cfg.Auth.TokenTTL, h.cfg.Auth.Issuer, h.cfg.Auth.TokenSecret)
}

func validateRegistration(req registerRequest) map[string]string {
	fields := make(map[string]string)
	username := strings.TrimSpace(req.Username)
	if username == "" {
		fields["username"] = "Username is required"
	} else if len(username) < 3 || len(username) > 50 {
		fields["username"] = "Username must be between 3 and 50 characters"
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		fields["email"] = "Email is required"
	} else if !strings.Contains(email, "@") {
		fields["email"] = "Email must be valid"
	}

	if req.Password == "" {
		fields["password"] = "Password is required"
	} else if len(req.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
