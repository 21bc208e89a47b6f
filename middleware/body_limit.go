package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodySize caps request bodies at n bytes.
func MaxBodySize(n int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if n > 0 && ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, n)
		}
		ctx.Next()
	}
}
