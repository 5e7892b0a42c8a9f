package api

import (
	"encoding/json"
	"net/http"
)

// 回應一律是 {success, message?, ...} 的 JSON 信封，HTTP 狀態固定 200，
// 前端只看 success 欄位。付款回調端點不走這個信封（見 order handler）
func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// SuccessJSON extra 會併進信封，例如 {"products": [...]}
func SuccessJSON(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func SuccessMsgJSON(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

func ErrorJSON(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": message})
}
