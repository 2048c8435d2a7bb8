package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/config"
	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/utils"
)

// AuthHandler issues bearer tokens
type AuthHandler struct {
	cfg *config.JWTConfig
	log *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(cfg *config.JWTConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log}
}

// IssueToken signs the posted identity
// @Summary Issue a bearer token
// @Description Sign a 24 hour token for the supplied identity claims
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Identity claims"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 500 {object} dto.ErrorResponse
// @Router /jwt [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	token, err := middleware.GenerateToken(req.Email, req.Name, h.cfg)
	if err != nil {
		internalError(w, h.log, "failed to generate token", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.TokenResponse{Token: token})
}
