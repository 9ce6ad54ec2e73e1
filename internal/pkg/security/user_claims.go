package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 认证服务签发的 Token 中携带的身份信息
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
