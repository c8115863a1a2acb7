package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type UserIDKey struct{}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Auth はJWTを検証するミドルウェアを返します。
// bypass が true の場合は検証せず、リクエストごとにランダムなユーザーIDを割り当てます（テスト用）。
//
// Parameters:
//
//	secret : HS256 の署名鍵
//	bypass : 認証をバイパスするかどうか
func Auth(secret string, bypass bool) func(http.Handler) http.Handler {
	logger := log.Default().WithPrefix("AuthMiddleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass {
				testUserID := uuid.New().String()
				logger.Debug("BYPASS_AUTH enabled", "user", testUserID)
				ctx := context.WithValue(r.Context(), UserIDKey{}, testUserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 1. authorizationヘッダーからJWTを取得
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
				return
			}

			// 2. JWT Secretを確認
			if secret == "" {
				logger.Error("JWT_SECRET is not set")
				writeJSONError(w, http.StatusInternalServerError, "Server configuration error: JWT secret missing")
				return
			}

			// 3. JWTの検証とパース
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// アルゴリズムがHMACであることを確認
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid token", "err", err)
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			// ユーザーIDは 'sub' (Subject) クレームに格納されている
			userID, err := claims.GetSubject()
			if err != nil || userID == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token: missing user ID")
				return
			}

			// 4. ユーザーIDをContextに設定して次のハンドラに渡す
			ctx := context.WithValue(r.Context(), UserIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
