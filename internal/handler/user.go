package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talentsync/talentsync/internal/handler/dto"
	"github.com/talentsync/talentsync/internal/model"
	"github.com/talentsync/talentsync/internal/service"
)

// UserHandler exposes the user admin/debug endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With("handler", "user"),
	}
}

// UserListResponse represents the response for user listing.
type UserListResponse struct {
	Users []model.UserResponse `json:"users"`
	Total int                  `json:"total"`
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users",
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list users")
		return
	}

	response := UserListResponse{
		Users: make([]model.UserResponse, 0, len(users)),
		Total: len(users),
	}
	for _, user := range users {
		response.Users = append(response.Users, user.ToResponse())
	}

	writeJSON(w, http.StatusOK, response)
}

// GetByClerkID handles GET /api/v1/users/clerk/{clerkID}
func (h *UserHandler) GetByClerkID(w http.ResponseWriter, r *http.Request) {
	clerkID := chi.URLParam(r, "clerkID")

	user, err := h.users.GetUserByClerkID(r.Context(), clerkID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeErrorJSON(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("failed to get user",
			"clerk_id", clerkID,
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeErrorJSON(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("failed to delete user",
			"user_id", id,
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete user")
		return
	}

	h.logger.Info("user deleted",
		"user_id", id,
		"request_id", getRequestID(r.Context()),
	)

	w.WriteHeader(http.StatusNoContent)
}

// Resync handles POST /api/v1/users/sync
// Manual counterpart of the webhook pipeline: same sync operation,
// same idempotence. 201 when a record was created, 200 for a no-op.
func (h *UserHandler) Resync(w http.ResponseWriter, r *http.Request) {
	var req dto.SyncUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	user, created, err := h.users.SyncUser(r.Context(), req.ClerkID, req.Email, req.Name, req.Image)
	if err != nil {
		if errors.Is(err, service.ErrMissingField) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error: "clerk_id and email are required",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		h.logger.Error("manual sync failed",
			"clerk_id", req.ClerkID,
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to sync user")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("user synced manually",
			"clerk_id", req.ClerkID,
			"user_id", user.ID,
			"request_id", getRequestID(r.Context()),
		)
	}

	writeJSON(w, status, user.ToResponse())
}
