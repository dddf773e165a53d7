package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にスタックトレースをログに出力し、500エラーを返す。
// tagはログの識別子で、空の場合は"PANIC"になる。
func Recovery(tag ...string) gin.HandlerFunc {
	prefix := "PANIC"
	if len(tag) > 0 && tag[0] != "" {
		prefix = tag[0]
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] %s %s: %v\n%s", prefix, c.Request.Method, c.Request.URL.Path, r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "内部サーバーエラーが発生しました",
				})
			}
		}()
		c.Next()
	}
}
