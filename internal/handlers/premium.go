package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/metrics"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// PremiumHandler runs the premium membership workflow
type PremiumHandler struct {
	store    store.Store
	requests store.Collection
	users    store.Collection
	biodata  store.Collection
	gate     *middleware.Gate
	log      *zap.Logger
}

// NewPremiumHandler creates a new PremiumHandler
func NewPremiumHandler(st store.Store, gate *middleware.Gate, log *zap.Logger) *PremiumHandler {
	return &PremiumHandler{
		store:    st,
		requests: st.Collection(store.CollectionPremiumRequests),
		users:    st.Collection(store.CollectionUsers),
		biodata:  st.Collection(store.CollectionBiodata),
		gate:     gate,
		log:      log,
	}
}

// Request files a pending premium request for the caller
// @Summary Request premium membership
// @Tags premium
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PremiumRequestCreate true "Request"
// @Success 200 {object} dto.InsertResponse
// @Failure 400 {object} dto.ErrorResponse "Already premium or already requested"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /premium/request [post]
func (h *PremiumHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.PremiumRequestCreate
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	email := middleware.EmailFromContext(r.Context())
	if req.UserEmail != "" && req.UserEmail != email {
		if !allowOwner(w, r, h.gate, h.log, req.UserEmail) {
			return
		}
		email = req.UserEmail
	}
	ctx := r.Context()

	user, err := findOptional(ctx, h.users, store.Document{"email": email})
	if err != nil {
		internalError(w, h.log, "failed to look up user", err)
		return
	}
	profile, err := findOptional(ctx, h.biodata, store.Document{models.BiodataIDField: *req.BiodataID})
	if err != nil {
		internalError(w, h.log, "failed to load biodata", err)
		return
	}
	if (user != nil && models.IsPremium(user)) || (profile != nil && models.IsPremium(profile)) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "already premium")
		return
	}

	pending, err := h.requests.Count(ctx, store.Document{"userEmail": email, "status": models.PremiumPending})
	if err != nil {
		internalError(w, h.log, "failed to check pending requests", err)
		return
	}
	if pending > 0 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "premium request already sent")
		return
	}

	pr := models.PremiumRequest{
		UserEmail: email,
		BiodataID: *req.BiodataID,
		Name:      req.Name,
		Status:    models.PremiumPending,
		CreatedAt: timestamp(),
	}
	res, err := h.requests.InsertOne(ctx, pr.Document())
	if err != nil {
		internalError(w, h.log, "failed to create premium request", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Inserted(res))
}

// List returns premium requests, optionally filtered by status
// @Summary List premium requests
// @Tags premium
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending or approved"
// @Success 200 {array} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /premium/request [get]
func (h *PremiumHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.Document
	if status := r.URL.Query().Get("status"); status != "" {
		filter = store.Document{"status": status}
	}
	docs, err := h.requests.Find(r.Context(), filter, &store.FindOptions{SortField: models.CreatedAtField, SortDesc: true})
	if err != nil {
		internalError(w, h.log, "failed to list premium requests", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, docs)
}

// Get returns one premium request, or null
// @Summary Get a premium request
// @Tags premium
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request id"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /premium/request/{id} [get]
func (h *PremiumHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := findOptional(r.Context(), h.requests, byID(r))
	if err != nil {
		internalError(w, h.log, "failed to load premium request", err)
		return
	}
	if doc != nil && !allowOwner(w, r, h.gate, h.log, doc.String("userEmail")) {
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, doc)
}

// UpdateStatus sets a request's status
// @Summary Set a premium request's status
// @Tags premium
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request id"
// @Param request body dto.PremiumStatusUpdate true "Status"
// @Success 200 {object} dto.UpdateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /premium/request/{id} [put]
func (h *PremiumHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.PremiumStatusUpdate
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}
	res, err := h.requests.UpdateOne(r.Context(), byID(r), store.Document{"status": req.Status})
	if err != nil {
		internalError(w, h.log, "failed to update premium request", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Updated(res))
}

// Approve upgrades the requesting user and their profile and marks the
// request approved, all in one transaction.
// @Summary Approve a premium request
// @Tags premium
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request id"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/approve-premium/{id} [put]
func (h *PremiumHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req, err := findOptional(r.Context(), h.requests, byID(r))
	if err != nil {
		internalError(w, h.log, "failed to load premium request", err)
		return
	}
	if req == nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not Found", "premium request not found")
		return
	}

	email := req.String("userEmail")
	biodataID, _ := req.Int(models.BiodataIDField)
	resp := dto.ApprovalResponse{BiodataID: biodataID, UserEmail: email}

	err = h.store.RunInTransaction(r.Context(), func(ctx context.Context) error {
		premium := store.Document{models.MemberTypeField: models.MemberPremium}

		res, err := h.users.UpdateOne(ctx, store.Document{"email": email}, premium)
		if err != nil {
			return fmt.Errorf("upgrade user: %w", err)
		}
		resp.User = dto.Updated(res)

		res, err = h.biodata.UpdateOne(ctx, store.Document{models.BiodataIDField: biodataID}, premium)
		if err != nil {
			return fmt.Errorf("upgrade biodata: %w", err)
		}
		resp.Biodata = dto.Updated(res)

		res, err = h.requests.UpdateOne(ctx, store.Document{store.IDField: id}, store.Document{"status": models.PremiumApproved})
		if err != nil {
			return fmt.Errorf("approve request: %w", err)
		}
		resp.Request = dto.Updated(res)
		return nil
	})
	if err != nil {
		metrics.PremiumApprovals.WithLabelValues("failed").Inc()
		internalError(w, h.log, "failed to approve premium request", err)
		return
	}

	metrics.PremiumApprovals.WithLabelValues("approved").Inc()
	h.log.Info("premium approved", zap.String("email", email), zap.Int64("biodataId", biodataID))
	resp.Message = "premium approved"
	utils.WriteJSONResponse(w, http.StatusOK, resp)
}
