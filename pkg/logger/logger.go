// Package logger はlogrusベースの構造化ロガーを生成する。
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New はJSON形式で出力するロガーを生成する。
// levelには "debug" / "info" / "warn" / "error" を指定する。それ以外はinfoとして扱う。
func New(service, level string) *logrus.Entry {
	return NewWithOutput(service, level, os.Stdout)
}

// NewWithOutput は出力先を指定してロガーを生成する。
func NewWithOutput(service, level string, w io.Writer) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetLevel(parseLevel(level))

	return log.WithField("service", service)
}

// parseLevel はログレベル文字列をlogrusのレベルに変換する。
func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
