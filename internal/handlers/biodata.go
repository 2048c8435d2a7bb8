package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// BiodataHandler serves matrimonial profiles
type BiodataHandler struct {
	biodata store.Collection
	users   store.Collection
	gate    *middleware.Gate
	log     *zap.Logger
}

// NewBiodataHandler creates a new BiodataHandler
func NewBiodataHandler(st store.Store, gate *middleware.Gate, log *zap.Logger) *BiodataHandler {
	return &BiodataHandler{
		biodata: st.Collection(store.CollectionBiodata),
		users:   st.Collection(store.CollectionUsers),
		gate:    gate,
		log:     log,
	}
}

// List returns every profile
// @Summary List profiles
// @Tags biodata
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Failure 500 {object} dto.ErrorResponse
// @Router /biodata [get]
func (h *BiodataHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.biodata.Find(r.Context(), nil, nil)
	if err != nil {
		internalError(w, h.log, "failed to list biodata", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, docs)
}

// Get returns one profile by id, or null
// @Summary Get a profile
// @Tags biodata
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile id"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Router /biodata/{id} [get]
func (h *BiodataHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := findOptional(r.Context(), h.biodata, byID(r))
	if err != nil {
		internalError(w, h.log, "failed to load biodata", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, doc)
}

// GetByEmail returns the profile owned by email, or null
// @Summary Get a profile by owner email
// @Tags biodata
// @Produce json
// @Security BearerAuth
// @Param email path string true "Owner email"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /biodata/email/{email} [get]
func (h *BiodataHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !allowOwner(w, r, h.gate, h.log, email) {
		return
	}
	doc, err := findOptional(r.Context(), h.biodata, store.Document{models.ContactEmailField: email})
	if err != nil {
		internalError(w, h.log, "failed to load biodata", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, doc)
}

// Create stores the caller's profile under the next biodataId
// @Summary Create a profile
// @Description The server assigns biodataId, contactEmail and memberType.
// @Tags biodata
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body map[string]interface{} true "Profile fields"
// @Success 200 {object} dto.InsertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /biodata [post]
func (h *BiodataHandler) Create(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(w, r, nil)
	if err != nil {
		return
	}

	email := middleware.EmailFromContext(r.Context())
	user, err := findOptional(r.Context(), h.users, store.Document{"email": email})
	if err != nil {
		internalError(w, h.log, "failed to look up user", err)
		return
	}
	if user == nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}

	stripFields(doc, models.ServerOwnedBiodataFields...)
	doc[models.ContactEmailField] = email
	doc[models.MemberTypeField] = models.MemberTypeOf(user)

	res, id, err := h.biodata.InsertSequenced(r.Context(), models.BiodataIDField, doc)
	if err != nil {
		internalError(w, h.log, "failed to create biodata", err)
		return
	}
	h.log.Info("biodata created", zap.String("email", email), zap.Int64("biodataId", id))
	utils.WriteJSONResponse(w, http.StatusOK, dto.Inserted(res))
}

// Update merges fields into a profile the caller owns
// @Summary Update a profile
// @Tags biodata
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile id"
// @Param request body map[string]interface{} true "Fields to merge"
// @Success 200 {object} dto.UpdateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /biodata/{id} [patch]
func (h *BiodataHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeDocument(w, r, nil)
	if err != nil {
		return
	}

	email := middleware.EmailFromContext(r.Context())
	caller, err := findOptional(r.Context(), h.users, store.Document{"email": email})
	if err != nil {
		internalError(w, h.log, "failed to look up user", err)
		return
	}
	if caller == nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}

	current, err := findOptional(r.Context(), h.biodata, byID(r))
	if err != nil {
		internalError(w, h.log, "failed to load biodata", err)
		return
	}
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusOK, dto.Updated(store.UpdateResult{}))
		return
	}
	owner := current.String(models.ContactEmailField)
	if !allowOwner(w, r, h.gate, h.log, owner) {
		return
	}

	// the tier always follows the owner's account
	tier := models.MemberTypeOf(caller)
	if owner != email {
		ownerUser, err := findOptional(r.Context(), h.users, store.Document{"email": owner})
		if err != nil {
			internalError(w, h.log, "failed to look up owner", err)
			return
		}
		tier = models.MemberTypeOf(current)
		if ownerUser != nil {
			tier = models.MemberTypeOf(ownerUser)
		}
	}

	stripFields(patch, models.ServerOwnedBiodataFields...)
	patch[models.MemberTypeField] = tier

	res, err := h.biodata.UpdateOne(r.Context(), byID(r), patch)
	if err != nil {
		internalError(w, h.log, "failed to update biodata", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Updated(res))
}
