package helpers

import (
	"encoding/json"
	"net/http"
)

// JSON пишет тело как есть, без обёртки: клиенты админки ждут плоские объекты.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		return
	}
}

// Error — {"error": msg}.
func Error(w http.ResponseWriter, status int, errMsg string) {
	JSON(w, status, map[string]string{"error": errMsg})
}

// Message — {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
