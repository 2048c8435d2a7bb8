package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// StoriesHandler serves success stories
type StoriesHandler struct {
	stories store.Collection
	log     *zap.Logger
}

// NewStoriesHandler creates a new StoriesHandler
func NewStoriesHandler(st store.Store, log *zap.Logger) *StoriesHandler {
	return &StoriesHandler{stories: st.Collection(store.CollectionStories), log: log}
}

// List returns stories newest first
// @Summary List success stories
// @Tags stories
// @Produce json
// @Success 200 {array} map[string]interface{}
// @Router /success-stories [get]
// @Router /stories [get]
func (h *StoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.stories.Find(r.Context(), nil, &store.FindOptions{SortField: models.CreatedAtField, SortDesc: true})
	if err != nil {
		internalError(w, h.log, "failed to list stories", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, docs)
}

// Create stores a story
// @Summary Share a success story
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body map[string]interface{} true "Story"
// @Success 200 {object} dto.InsertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /success-stories [post]
func (h *StoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(w, r, nil)
	if err != nil {
		return
	}
	stripFields(doc, store.IDField)
	if _, ok := doc[models.CreatedAtField]; !ok {
		doc[models.CreatedAtField] = timestamp()
	}
	res, err := h.stories.InsertOne(r.Context(), doc)
	if err != nil {
		internalError(w, h.log, "failed to create story", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Inserted(res))
}

// Update replaces a story's editable fields; absent ones become null
// @Summary Edit a success story
// @Tags stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story id"
// @Param request body map[string]interface{} true "Story fields"
// @Success 200 {object} dto.UpdateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /success-stories/{id} [patch]
func (h *StoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := decodeDocument(w, r, nil)
	if err != nil {
		return
	}
	set := make(store.Document, len(models.StoryFields))
	for _, f := range models.StoryFields {
		set[f] = body[f]
	}
	res, err := h.stories.UpdateOne(r.Context(), byID(r), set)
	if err != nil {
		internalError(w, h.log, "failed to update story", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Updated(res))
}
