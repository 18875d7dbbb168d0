package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

type UserService interface {
	Create(ctx context.Context, req models.UserCreateRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filters models.Filters) (*models.UserPage, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Users struct {
	s UserService
	l logger.Logger
}

func NewUsers(s UserService, l logger.Logger) *Users {
	return &Users{s: s, l: l}
}

// List godoc
// @Summary      List users
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number"
// @Param        page_size  query     int     false  "Page size"
// @Param        sort       query     string  false  "Sort column, prefix with - for descending"
// @Success      200        {object}  models.UserPage
// @Router       /api/users [get]
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_users")

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", models.DefaultPageSize, v)
	sort := readString(qs, "sort", "username")

	filters := models.NewUserFilters(page, pageSize, sort)
	filters.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	users, err := h.s.List(ctx, filters)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to list users", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, users, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Create godoc
// @Summary      Create user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.UserCreateRequest  true  "New user"
// @Success      201      {object}  models.User
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]any
// @Router       /api/users [post]
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_user")

	req := &models.UserCreateRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateUser(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, err := h.s.Create(ctx, *req)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to create user", err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, user, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Get godoc
// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_user")

	id, err := readUUID(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	user, err := h.s.Get(ctx, id)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to get user", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, user, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Update godoc
// @Summary      Update user
// @Description  Partially updates a user. Changing the password signs the user out everywhere.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true  "User ID"
// @Param        request  body      models.UserPatch  true  "Fields to change"
// @Success      200      {object}  models.User
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /api/users/{id} [patch]
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_user")

	id, err := readUUID(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	patch := &models.UserPatch{}
	if err := readJSON(w, r, patch); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateUserPatch(v, patch)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, err := h.s.Update(ctx, id, *patch)
	if err != nil {
		serviceError(ctx, w, h.l, "failed to update user", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, user, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}

// Delete godoc
// @Summary      Delete user
// @Tags         Users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/users/{id} [delete]
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_user")

	id, err := readUUID(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if claims := models.ClaimsFromContext(ctx); claims != nil && claims.UserID == id {
		errorResponse(w, http.StatusConflict, "cannot delete your own account")
		return
	}

	if err := h.s.Delete(ctx, id); err != nil {
		serviceError(ctx, w, h.l, "failed to delete user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
