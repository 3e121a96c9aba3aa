package handler

import (
	"net/http"

	"github.com/blues/fundhive/internal/funding"
	"github.com/gin-gonic/gin"
)

// 身份信息通过请求头传递
const (
	HeaderUserID      = "x-user-id"
	HeaderUserName    = "x-user-name"
	HeaderUserPicture = "x-user-picture"
	HeaderRequestID   = "X-Request-ID"
)

const identityKey = "fundhive.identity"

// Identity 从请求头读取调用方身份
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(HeaderUserID); id != "" {
			c.Set(identityKey, funding.Contributor{
				ID:     id,
				Name:   c.GetHeader(HeaderUserName),
				Avatar: c.GetHeader(HeaderUserPicture),
			})
		}
		c.Next()
	}
}

// RequireIdentity 缺少身份时直接返回 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); !ok {
			ErrorResponse(c, http.StatusUnauthorized, "User ID required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom 获取调用方身份
func IdentityFrom(c *gin.Context) (funding.Contributor, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return funding.Contributor{}, false
	}
	who, ok := v.(funding.Contributor)
	return who, ok
}
