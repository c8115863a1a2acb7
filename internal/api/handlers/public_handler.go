package handlers

import (
	"fmt"
	"net/http"
)

// PublicHandlerFunc は認証不要の疎通確認用エンドポイントです。
// GET /api/public
func PublicHandlerFunc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "Hello, this is public content! (From /api/public)")
}
