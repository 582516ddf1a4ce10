package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clem-pxp/elevate-auth/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON sends payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError sends the {"error": ...} envelope every endpoint uses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// decodeAndValidate parses the JSON body into req and runs its validate
// tags. A false return means the response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	if err := validate.Struct(req); err != nil {
		details := map[string]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				details[fe.Field()] = "failed " + fe.Tag() + " validation"
			}
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request payload",
			Details: details,
		})
		return false
	}
	return true
}
