package middleware

import (
	"net/http"
	"strings"
)

// NewCORSMiddleware はCORS_ALLOWED_ORIGINに基づくCORSミドルウェアを返す。
// allowedOriginは"*"またはカンマ区切りのオリジン一覧。一覧の場合はリクエストの
// Originが含まれるときだけそのOriginを返し、含まれなければCORSヘッダーを付けない。
// 認証はAuthorizationヘッダーで行い、Cookieは使わない。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	wildcard := strings.TrimSpace(allowedOrigin) == "*"
	allowed := make(map[string]struct{})
	for _, o := range strings.Split(allowedOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			allowed[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := ""
			if wildcard {
				origin = "*"
			} else {
				w.Header().Add("Vary", "Origin")
				if _, ok := allowed[r.Header.Get("Origin")]; ok {
					origin = r.Header.Get("Origin")
				}
			}

			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				// 429のRetry-Afterをブラウザのクライアントから読めるようにする
				w.Header().Set("Access-Control-Expose-Headers", "Retry-After")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
