package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/token"
)

// AuthPayloadMiddleware 有帶 bearer token 就驗證並塞進 ctx，沒帶不擋，
// 由 AuthMiddleware / AdminMiddleware 決定該端點要不要登入
func AuthPayloadMiddleware(tokenMaker *token.Maker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			fields := strings.Fields(authHeader)
			if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokenMaker.VerifyToken(fields[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), constants.AuthClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// 驗證是ctx是否有token payload
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Value(constants.AuthClaimsKey).(*token.Claims)
		if !ok {
			api.ErrorJSON(w, "Bạn chưa đăng nhập, vui lòng đăng nhập lại")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware 僅放行 IsAdmin token
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(constants.AuthClaimsKey).(*token.Claims)
		if !ok || !claims.IsAdmin {
			api.ErrorJSON(w, "Bạn không có quyền truy cập")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext handler 端取登入資訊
func ClaimsFromContext(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(constants.AuthClaimsKey).(*token.Claims)
	return claims
}
