package respond

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// Error пишет конверт с машинно-читаемым типом ошибки и человеческим сообщением
func Error(w http.ResponseWriter, r *http.Request, code int, errType, message string) {
	JSON(w, r, code, map[string]string{"error": errType, "message": message})
}
