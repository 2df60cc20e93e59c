package apperr

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Respond はエラーをJSONレスポンスとして書き込み、リクエストを中断する。
// 5xx相当のエラーは原因を含めてサーバー側にのみ記録する。
func Respond(c *gin.Context, log logrus.FieldLogger, err error) {
	appErr := As(err)
	status := appErr.HTTPStatus()

	if status >= 500 && log != nil {
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"kind":   appErr.Kind.String(),
		}).WithError(appErr.Err).Error("リクエストの処理に失敗")
	}

	body := gin.H{"error": appErr.Code()}
	if appErr.Message != "" {
		body["message"] = appErr.Message
	}
	c.AbortWithStatusJSON(status, body)
}
