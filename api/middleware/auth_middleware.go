package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/internal/auth"
)

const (
	ContextUserIDKey = "user_id"

	// CodeUnauthorized 认证失败时返回的错误码
	CodeUnauthorized = "unauthorized"
)

// TokenParser 校验访问令牌
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// JWTAuth 优先读取 Authorization: Bearer，否则读取 cookie
func JWTAuth(parser TokenParser, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ContextUserIDKey, claims.UID)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, common.Response{
		Status: "error",
		Msg:    "invalid or missing access token",
		Code:   CodeUnauthorized,
	})
}

// UserID 当前请求的用户引用，未认证时返回 nil
func UserID(c *gin.Context) *string {
	uid := c.GetString(ContextUserIDKey)
	if uid == "" {
		return nil
	}
	return &uid
}
