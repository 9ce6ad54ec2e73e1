package middleware

import (
	"Fellowship/internal/pkg/consts"
	"Fellowship/internal/pkg/redis"
	"Fellowship/internal/pkg/response"
	"Fellowship/internal/pkg/security"
	"Fellowship/internal/service"
	"context"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验 Bearer Token，并把用户 ID 注入 gin.Context 与 request ctx
func AuthMiddleware(signer *security.TokenSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, service.Unauthorized, service.ErrUnauthenticated.Error(), nil)
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, service.Unauthorized, service.ErrUnauthenticated.Error(), nil)
			c.Abort()
			return
		}

		// 认证服务注销时把签名写入黑名单
		revoked, err := redis.GetValue(c.Request.Context(), consts.RevokedTokenKey+signature)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "check revoked token failed", "err", err)
			response.Fail(c, service.InternalServerError, service.UnExpectedError.Error(), nil)
			c.Abort()
			return
		}
		if revoked != "" {
			response.Fail(c, service.Unauthorized, service.ErrUnauthenticated.Error(), nil)
			c.Abort()
			return
		}

		claims, err := signer.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, service.Unauthorized, service.ErrUnauthenticated.Error(), nil)
			c.Abort()
			return
		}

		c.Set(consts.CtxUserID, claims.UserID)
		ctx := context.WithValue(c.Request.Context(), consts.CtxUserID, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
