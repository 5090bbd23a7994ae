package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Spark-Project-Pulse/backend/utils"
)

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")), true
}

// claimUint reads a numeric claim. JSON numbers decode as float64; string ids
// from older tokens are tolerated too.
func claimUint(claims map[string]interface{}, key string) uint {
	switch v := claims[key].(type) {
	case float64:
		return uint(v)
	case int:
		return uint(v)
	case string:
		var n uint
		for _, c := range v {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + uint(c-'0')
		}
		return n
	}
	return 0
}

// AuthMiddleware validates the access token and puts the user id and role on
// the request context. Admin tokens are refused here; admins have their own
// surface.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearerToken(r)
		if !ok {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
			return
		}

		_, claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			msg := "Invalid token"
			if strings.Contains(err.Error(), "expired") {
				msg = "Session expired, please log in again."
			}
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: msg})
			return
		}

		role, _ := claims["role"].(string)
		if role == "admin" {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Access denied"})
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDKey, claimUint(claims, "id"))
		ctx = context.WithValue(ctx, utils.UserRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
