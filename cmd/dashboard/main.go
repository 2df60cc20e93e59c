// ダッシュボードAPIのエントリポイント。
// キャラクター審査キューと通知一覧を提供し、管理者による通知作成を受け付ける。
package main

import (
	"github.com/sirupsen/logrus"

	"github.com/nao1215/campaign/internal/config"
	"github.com/nao1215/campaign/internal/dashboard"
	"github.com/nao1215/campaign/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("設定の読み込みに失敗: %v", err)
	}

	log := logger.New("dashboard", cfg.LogLevel)

	server, err := dashboard.NewServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("ダッシュボードサーバーの初期化に失敗")
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.WithError(err).Warn("ストアのクローズに失敗")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":      cfg.Port,
		"db_driver": cfg.DBDriver,
	}).Info("ダッシュボードAPIを起動します")
	if err := server.Run(); err != nil {
		log.WithError(err).Error("ダッシュボードAPIの起動に失敗")
	}
}
