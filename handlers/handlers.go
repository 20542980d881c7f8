package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/IACMS/IACMS/utils"
)

// decodeAndValidate decodes the JSON request body into dst and validates it
// against its struct tags. On failure it writes the 400 response and returns
// false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		details := map[string]interface{}{}
		for field, msg := range utils.GetValidationFields(err) {
			details[field] = msg
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return false
	}

	return true
}
