package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTSecret         string = "Amoura"
	JWTExpirationTime        = time.Hour * 24
)

// UserClaims Token 中携带的业务信息。签发方是独立的认证服务，
// 本服务只做校验并取出稳定的用户标识。
type UserClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
