package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// FavoritesHandler manages bookmarked profiles
type FavoritesHandler struct {
	favorites store.Collection
	gate      *middleware.Gate
	log       *zap.Logger
}

// NewFavoritesHandler creates a new FavoritesHandler
func NewFavoritesHandler(st store.Store, gate *middleware.Gate, log *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{favorites: st.Collection(store.CollectionFavorites), gate: gate, log: log}
}

// Create bookmarks a profile once per user
// @Summary Add a favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.FavoriteRequest true "Favorite"
// @Success 200 {object} dto.InsertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /favorites [post]
func (h *FavoritesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.FavoriteRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}
	if !allowOwner(w, r, h.gate, h.log, req.UserEmail) {
		return
	}

	fav := models.Favorite{BiodataID: *req.BiodataID, UserEmail: req.UserEmail, CreatedAt: timestamp()}
	existing, err := findOptional(r.Context(), h.favorites, fav.Key())
	if err != nil {
		internalError(w, h.log, "failed to look up favorite", err)
		return
	}
	if existing != nil {
		utils.WriteJSONResponse(w, http.StatusOK, dto.NotInserted("already exists"))
		return
	}

	res, err := h.favorites.InsertOne(r.Context(), fav.Document())
	if errors.Is(err, store.ErrDuplicate) {
		utils.WriteJSONResponse(w, http.StatusOK, dto.NotInserted("already exists"))
		return
	}
	if err != nil {
		internalError(w, h.log, "failed to add favorite", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Inserted(res))
}

// ListByUser returns a user's favorites
// @Summary List favorites
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param userEmail path string true "Owner email"
// @Success 200 {array} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /favorites/{userEmail} [get]
func (h *FavoritesHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("userEmail")
	if !allowOwner(w, r, h.gate, h.log, email) {
		return
	}
	docs, err := h.favorites.Find(r.Context(), store.Document{"userEmail": email}, nil)
	if err != nil {
		internalError(w, h.log, "failed to list favorites", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, docs)
}

// Delete removes a favorite by id
// @Summary Remove a favorite
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param id path string true "Favorite id"
// @Success 200 {object} dto.DeleteResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /favorites/{id} [delete]
func (h *FavoritesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteOwned(w, r, h.favorites, "userEmail", h.gate, h.log)
}

// deleteOwned deletes the document addressed by the id path value after
// checking ownerField against the caller. A missing document deletes nothing.
func deleteOwned(w http.ResponseWriter, r *http.Request, col store.Collection, ownerField string, gate *middleware.Gate, log *zap.Logger) {
	doc, err := findOptional(r.Context(), col, byID(r))
	if err != nil {
		internalError(w, log, "failed to load document", err)
		return
	}
	if doc == nil {
		utils.WriteJSONResponse(w, http.StatusOK, dto.Deleted(store.DeleteResult{}))
		return
	}
	if !allowOwner(w, r, gate, log, doc.String(ownerField)) {
		return
	}
	res, err := col.DeleteOne(r.Context(), byID(r))
	if err != nil {
		internalError(w, log, "failed to delete document", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Deleted(res))
}
