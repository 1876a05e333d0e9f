package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-service/internal/auth"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service, validate: newValidator()}
}

func (h *UserHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, h.validate, &req, false) {
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	created, err := h.service.Signup(r.Context(), user.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		message := "Failed to register user"
		if errors.Is(err, user.ErrEmailExists) {
			message = "User already exists"
		}
		respondWithServiceError(w, r, err, message)
		return
	}

	respond(w, http.StatusOK, "User registered successfully", toUserResponse(created))
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, h.validate, &req, false) {
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err, "Invalid email or password")
		return
	}

	message := "Login successful. User access granted"
	if res.User.Role == auth.RoleAdmin {
		message = "Login successful. Admin dashboard access granted"
	}

	respond(w, http.StatusOK, message, LoginResponse{Token: res.Token, User: toUserResponse(res.User)})
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Profile(r.Context(), currentUserID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "User not found")
		return
	}

	respond(w, http.StatusOK, "Profile fetched successfully", toUserResponse(u))
}
