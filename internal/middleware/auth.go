package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"bank-office/internal/services"
	"bank-office/internal/utils"
)

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	utils.LogSuccess("Middleware", "auth middleware initialized")
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth validates the Bearer token and stores user_id and is_staff in
// the request context.
func (m *AuthMiddleware) RequireAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		startTime := time.Now()

		authHeader := string(ctx.Request.Header.Peek("Authorization"))
		if authHeader == "" {
			utils.LogWarning("Middleware", "missing Authorization header")
			reject(ctx, "authorization required")
			utils.LogResponse("RequireAuth", fasthttp.StatusUnauthorized, time.Since(startTime))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.LogWarning("Middleware", "malformed Authorization header")
			reject(ctx, "invalid token format")
			utils.LogResponse("RequireAuth", fasthttp.StatusUnauthorized, time.Since(startTime))
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			utils.LogWarning("Middleware", "invalid token: %v", err)
			reject(ctx, "invalid or expired token")
			utils.LogResponse("RequireAuth", fasthttp.StatusUnauthorized, time.Since(startTime))
			return
		}

		ctx.SetUserValue("user_id", claims.UserID)
		ctx.SetUserValue("is_staff", claims.IsStaff)
		utils.LogDebug("Middleware", "authenticated user: %s (staff: %v)", claims.UserID, claims.IsStaff)

		next(ctx)
	}
}

// RequireStaff wraps RequireAuth and additionally demands the staff claim.
func (m *AuthMiddleware) RequireStaff(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return m.RequireAuth(func(ctx *fasthttp.RequestCtx) {
		isStaff, ok := ctx.UserValue("is_staff").(bool)
		if !ok || !isStaff {
			userID, _ := ctx.UserValue("user_id").(string)
			utils.LogWarning("Middleware", "user %s denied: staff access required", userID)
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			ctx.SetContentType("application/json")
			json.NewEncoder(ctx).Encode(map[string]string{
				"error": "staff access required",
			})
			return
		}
		next(ctx)
	})
}

func reject(ctx *fasthttp.RequestCtx, message string) {
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{
		"error": message,
	})
}
