package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes bounds request bodies; directory and file payloads are tiny.
const maxBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into dest.
// Unknown fields are accepted so clients may echo back full records.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
