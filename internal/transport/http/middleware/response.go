package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// writeJSONError writes a failure in the standard response envelope without
// importing the handler package.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"message":    msg,
		"time":       time.Now().UTC(),
		"statusCode": status,
	})
}
