package middleware

import (
	"net/http"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
