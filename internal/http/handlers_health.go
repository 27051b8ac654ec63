package httpx

import "net/http"

// Health is a liveness probe. It does not touch the database so it stays
// useful while storage is degraded.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
