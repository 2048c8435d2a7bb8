package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// UsersHandler manages user accounts
type UsersHandler struct {
	users store.Collection
	log   *zap.Logger
}

// NewUsersHandler creates a new UsersHandler
func NewUsersHandler(st store.Store, log *zap.Logger) *UsersHandler {
	return &UsersHandler{users: st.Collection(store.CollectionUsers), log: log}
}

// Create registers a user unless the email is already taken
// @Summary Register a user
// @Description Insert a user keyed by email. An existing email is answered with a null insertedId.
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "User"
// @Success 200 {object} dto.InsertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users [post]
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	existing, err := findOptional(r.Context(), h.users, store.Document{"email": req.Email})
	if err != nil {
		internalError(w, h.log, "failed to look up user", err)
		return
	}
	if existing != nil {
		utils.WriteJSONResponse(w, http.StatusOK, dto.NotInserted("user already exists"))
		return
	}

	user := models.User{
		Email:      req.Email,
		Name:       req.Name,
		Photo:      req.Photo,
		MemberType: models.MemberStandard,
		CreatedAt:  timestamp(),
	}
	res, err := h.users.InsertOne(r.Context(), user.Document())
	if errors.Is(err, store.ErrDuplicate) {
		utils.WriteJSONResponse(w, http.StatusOK, dto.NotInserted("user already exists"))
		return
	}
	if err != nil {
		internalError(w, h.log, "failed to create user", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.Inserted(res))
}

// List returns every user
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /users [get]
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Find(r.Context(), nil, nil)
	if err != nil {
		internalError(w, h.log, "failed to list users", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, users)
}

// AdminProbe reports the caller's role and tier
// @Summary Role and tier of the caller
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param email path string true "Caller email"
// @Success 200 {object} dto.AdminProbeResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /users/admin/{email} [get]
func (h *UsersHandler) AdminProbe(w http.ResponseWriter, r *http.Request) {
	user, err := findOptional(r.Context(), h.users, store.Document{"email": r.PathValue("email")})
	if err != nil {
		internalError(w, h.log, "failed to look up user", err)
		return
	}

	var resp dto.AdminProbeResponse
	if user != nil {
		resp.Admin = user.String("role") == models.RoleAdmin
		resp.Premium = models.IsPremium(user)
	}
	utils.WriteJSONResponse(w, http.StatusOK, resp)
}

// UpdateRole sets a user's role; an empty body promotes to admin
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User id"
// @Param request body dto.RoleUpdateRequest false "Role, admin or empty"
// @Success 200 {object} dto.UpdateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /users/role/{id} [put]
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	role := models.RoleAdmin
	if r.ContentLength != 0 {
		var req dto.RoleUpdateRequest
		if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
			return
		}
		if req.Role != nil {
			role = *req.Role
		}
		if role != models.RoleAdmin && role != models.RoleNone {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "role must be one of [admin '']")
			return
		}
	}

	res, err := h.users.UpdateOne(r.Context(),
		store.Document{store.IDField: r.PathValue("id")},
		store.Document{"role": role})
	if err != nil {
		internalError(w, h.log, "failed to update role", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Updated(res))
}
