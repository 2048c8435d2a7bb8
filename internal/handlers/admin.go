package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// AdminHandler serves dashboard figures
type AdminHandler struct {
	store store.Store
	log   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(st store.Store, log *zap.Logger) *AdminHandler {
	return &AdminHandler{store: st, log: log}
}

// Stats counts profiles, payments and stories
// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AdminStatsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	biodata := h.store.Collection(store.CollectionBiodata)
	var resp dto.AdminStatsResponse
	queries := []countQuery{
		{biodata, nil, &resp.TotalBiodata},
		{biodata, store.Document{models.BiodataTypeField: models.BiodataMale}, &resp.MaleBiodata},
		{biodata, store.Document{models.BiodataTypeField: models.BiodataFemale}, &resp.FemaleBiodata},
		{biodata, store.Document{models.MemberTypeField: models.MemberPremium}, &resp.PremiumBiodata},
		{h.store.Collection(store.CollectionPayments), nil, &resp.TotalPayments},
		{h.store.Collection(store.CollectionStories), nil, &resp.SuccessStories},
	}
	for _, q := range queries {
		n, err := q.col.Count(r.Context(), q.filter)
		if err != nil {
			internalError(w, h.log, "failed to count documents", err)
			return
		}
		*q.dst = n
	}
	utils.WriteJSONResponse(w, http.StatusOK, resp)
}

type countQuery struct {
	col    store.Collection
	filter store.Document
	dst    *int64
}
