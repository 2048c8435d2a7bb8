package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/metrics"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/payment"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// PaymentsHandler records contact-request payments and creates intents
type PaymentsHandler struct {
	payments store.Collection
	intents  payment.IntentCreator
	currency string
	gate     *middleware.Gate
	log      *zap.Logger
}

// NewPaymentsHandler creates a new PaymentsHandler
func NewPaymentsHandler(st store.Store, intents payment.IntentCreator, currency string, gate *middleware.Gate, log *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		payments: st.Collection(store.CollectionPayments),
		intents:  intents,
		currency: currency,
		gate:     gate,
		log:      log,
	}
}

// CreateIntent asks the processor for a card payment intent
// @Summary Create a payment intent
// @Tags payments
// @Accept json
// @Produce json
// @Param request body dto.PaymentIntentRequest true "Price in major units"
// @Success 200 {object} dto.PaymentIntentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /create-payment-intent [post]
func (h *PaymentsHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentIntentRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	amount, err := payment.MinorUnits(req.Price)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	secret, err := h.intents.CreateIntent(r.Context(), amount, h.currency)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("failed").Inc()
		if errors.Is(err, payment.ErrNotConfigured) {
			h.log.Warn("payment intent requested without processor key")
		}
		internalError(w, h.log, "failed to create payment intent", err)
		return
	}
	metrics.PaymentIntents.WithLabelValues("created").Inc()
	utils.WriteJSONResponse(w, http.StatusOK, dto.PaymentIntentResponse{ClientSecret: secret})
}

// Create stores a payment record
// @Summary Record a payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PaymentRecord true "Payment; extra fields are kept"
// @Success 200 {object} dto.InsertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /payments [post]
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rec dto.PaymentRecord
	doc, err := decodeDocument(w, r, &rec)
	if err != nil {
		return
	}

	requester := rec.RequestEmail
	if requester == "" {
		requester = middleware.EmailFromContext(r.Context())
	}
	if !allowOwner(w, r, h.gate, h.log, requester) {
		return
	}

	stripFields(doc, store.IDField)
	doc[models.PaymentRequestEmailField] = requester
	if rec.Status == "" {
		doc[models.PaymentStatusField] = models.PaymentPending
	}
	doc[models.CreatedAtField] = timestamp()

	res, err := h.payments.InsertOne(r.Context(), doc)
	if err != nil {
		internalError(w, h.log, "failed to record payment", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Inserted(res))
}

// CheckStatus reports whether email has paid for biodataId
// @Summary Check payment status
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param biodataId query int true "Profile biodataId"
// @Param email query string true "Requester email"
// @Success 200 {object} dto.PaymentStatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /check-payment-status [get]
func (h *PaymentsHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("email")
	biodataID, err := strconv.ParseInt(q.Get("biodataId"), 10, 64)
	if err != nil || email == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "biodataId and email are required")
		return
	}
	if !allowOwner(w, r, h.gate, h.log, email) {
		return
	}

	n, err := h.payments.Count(r.Context(), store.Document{
		models.PaymentBiodataIDField:    biodataID,
		models.PaymentRequestEmailField: email,
	})
	if err != nil {
		internalError(w, h.log, "failed to check payment", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.PaymentStatusResponse{Paid: n > 0})
}

// List returns every payment
// @Summary List payments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /payments [get]
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.payments.Find(r.Context(), nil, &store.FindOptions{SortField: models.CreatedAtField, SortDesc: true})
	if err != nil {
		internalError(w, h.log, "failed to list payments", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, docs)
}

// UpdateStatus sets a payment's status
// @Summary Set a payment's status
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment id"
// @Param request body dto.PaymentStatusUpdate true "Status"
// @Success 200 {object} dto.UpdateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /payments/{id} [patch]
func (h *PaymentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentStatusUpdate
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}
	res, err := h.payments.UpdateOne(r.Context(), byID(r), store.Document{models.PaymentStatusField: req.Status})
	if err != nil {
		internalError(w, h.log, "failed to update payment", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.Updated(res))
}

// Mine returns the caller's contact requests
// @Summary List my contact requests
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} map[string]interface{}
// @Failure 401 {object} dto.ErrorResponse
// @Router /my-contact-requests [get]
func (h *PaymentsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	email := middleware.EmailFromContext(r.Context())
	docs, err := h.payments.Find(r.Context(),
		store.Document{models.PaymentRequestEmailField: email},
		&store.FindOptions{SortField: models.CreatedAtField, SortDesc: true})
	if err != nil {
		internalError(w, h.log, "failed to list contact requests", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, docs)
}

// Delete removes a payment the caller made
// @Summary Delete a payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment id"
// @Success 200 {object} dto.DeleteResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /payments/{id} [delete]
// @Router /delete-payment/{id} [delete]
func (h *PaymentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteOwned(w, r, h.payments, models.PaymentRequestEmailField, h.gate, h.log)
}
