package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時はパニック値をログに出力し、500エラーを返す。
// レスポンスにはパニックの内容を含めない。
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"panic":  r,
				}).Error("[PANIC] リクエスト処理中にパニックが発生")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "INTERNAL_SERVER_ERROR",
				})
			}
		}()
		c.Next()
	}
}
