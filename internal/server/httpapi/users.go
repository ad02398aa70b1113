package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/services"
)

type loginRequest struct {
	UserName string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	UserName  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,max=72"`
	Encrypted bool   `json:"encrypted"`
	Admin     bool   `json:"admin"`
}

func (req registerRequest) newUser() services.NewUser {
	return services.NewUser{UserName: req.UserName, Password: req.Password, Encrypted: req.Encrypted, Admin: req.Admin}
}

type updateUserRequest struct {
	NewUserName *string `json:"new_username" validate:"omitempty,max=64"`
	Encrypted   *bool   `json:"encrypted"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
}

// userResponse is the public view of a user.
type userResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	Encrypted bool      `json:"encrypted"`
	Admin     bool      `json:"admin"`
	Tier      int       `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, UserName: u.UserName, Encrypted: u.Encrypted, Admin: u.Admin, Tier: u.Tier, CreatedAt: u.CreatedAt}
}

// Login accepts JSON or an OAuth2-style password form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		req.UserName, req.Password = r.PostFormValue("username"), r.PostFormValue("password")
		if err := check(&req); err != nil {
			h.fail(w, r, err)
			return
		}
	} else if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "Logged in", "username", req.UserName)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) RegisterPublic(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.RegisterPublic(r.Context(), req.newUser())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "Registered", "username", user.UserName)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) RegisterByAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.RegisterByAdmin(r.Context(), currentUser(r), req.newUser())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "Registered by admin", "username", user.UserName, "admin", currentUser(r).UserName)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	users, err := h.users.ListUsers(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(r)))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), currentUser(r), req.NewUserName, req.Encrypted)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), currentUser(r), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "User deleted", "username", user.UserName)
	w.WriteHeader(http.StatusNoContent)
}
