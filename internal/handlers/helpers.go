package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// now is replaced in tests that need a fixed clock
var now = time.Now

func timestamp() string {
	return utils.FormatTimestamp(now())
}

func internalError(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", msg)
}

func forbidden(w http.ResponseWriter) {
	utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "forbidden access")
}

// allowOwner applies the owner-or-admin rule and writes the 403/500 itself
// when the caller is refused.
func allowOwner(w http.ResponseWriter, r *http.Request, gate *middleware.Gate, log *zap.Logger, owner string) bool {
	ok, err := gate.OwnerOrAdmin(r.Context(), owner)
	if err != nil {
		internalError(w, log, "failed to verify ownership", err)
		return false
	}
	if !ok {
		forbidden(w)
		return false
	}
	return true
}

// findOptional is FindOne with a missing document reported as nil.
func findOptional(ctx context.Context, col store.Collection, filter store.Document) (store.Document, error) {
	doc, err := col.FindOne(ctx, filter)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// stripFields removes keys the client may not set
func stripFields(doc store.Document, keys ...string) {
	for _, k := range keys {
		delete(doc, k)
	}
}

// decodeDocument reads a free-form body. When typed is non-nil the same
// body is also decoded into it, so its validate tags can be checked while
// the document keeps every field the client sent.
func decodeDocument(w http.ResponseWriter, r *http.Request, typed any) (store.Document, error) {
	var raw json.RawMessage
	if err := utils.DecodeJSONRequest(w, r, &raw); err != nil {
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		if err == nil {
			err = errors.New("request body must be a JSON object")
		}
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return nil, err
	}
	if typed != nil {
		if err := json.Unmarshal(raw, typed); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return nil, err
		}
		if err := utils.ValidateStruct(typed); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
			return nil, err
		}
	}
	return doc, nil
}

// byID is the filter addressing a document by its _id path value
func byID(r *http.Request) store.Document {
	return store.Document{store.IDField: r.PathValue("id")}
}
