package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// MaxBodyBytes caps request bodies read by DecodeJSONRequest.
const MaxBodyBytes = 1 << 20

// DecodeJSONRequest decodes the body into dst. On failure it writes a 400
// and returns the error, so callers only need to return.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return err
	}
	return nil
}

// FormatTimestamp renders t in RFC3339, UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
