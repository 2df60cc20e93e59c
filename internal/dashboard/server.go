package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/campaign/internal/authz"
	"github.com/nao1215/campaign/internal/config"
	"github.com/nao1215/campaign/internal/notification"
	"github.com/nao1215/campaign/internal/store"
	"github.com/nao1215/campaign/pkg/metrics"
	"github.com/nao1215/campaign/pkg/middleware"
	"github.com/nao1215/campaign/pkg/validate"
)

// Server はダッシュボードAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// stores はプロセス全体で共有するストアのハンドル。
	stores *store.Provider
	// guard は管理者ガード。
	guard *authz.Guard
	// producer は通知配信レコードの作成を行う。
	producer *notification.Producer
	// log は構造化ロガー。
	log logrus.FieldLogger
	// registry はPrometheusメトリクスのレジストリ。
	registry *prometheus.Registry
	// jwtSecret はセッショントークンの署名・検証用の秘密鍵。
	jwtSecret string
	// devTokens は開発用トークン発行エンドポイントを有効にするかどうか。
	devTokens bool
}

// Options はServerの構成要素。
type Options struct {
	Port        string
	JWTSecret   string
	FrontendURL string
	DevTokens   bool
	Stores      *store.Provider
	Logger      logrus.FieldLogger
	// Registry がnilの場合は新しいレジストリを生成する。
	Registry *prometheus.Registry
}

// NewServer は設定から新しいダッシュボードサーバーを生成する。
// データベース接続は最初のリクエストで確立し、以降は再利用する。
func NewServer(cfg config.Config, log logrus.FieldLogger) (*Server, error) {
	stores := store.NewProvider(func(ctx context.Context) (*store.Store, error) {
		return store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, log)
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return New(Options{
		Port:        cfg.Port,
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
		DevTokens:   cfg.DevTokens,
		Stores:      stores,
		Logger:      log,
		Registry:    registry,
	})
}

// registerOnce はginのバインディング設定とvalidatorへのカスタムタグ登録を1度だけ行う。
// ペイロードの数値はjson.Numberとしてデコードし、受け取った値を変えずに保存する。
var registerOnce = sync.OnceValue(func() error {
	binding.EnableDecoderUseNumber = true

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("未対応のvalidatorエンジンです: %T", binding.Validator.Engine())
	}
	return validate.Register(v)
})

// New は構成要素からServerを生成する。
func New(opts Options) (*Server, error) {
	if err := registerOnce(); err != nil {
		return nil, fmt.Errorf("カスタムバリデーションの登録に失敗: %w", err)
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.New(registry)

	router := gin.New()
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.RequestLogger(opts.Logger, m.RequestDuration))
	if opts.FrontendURL != "" {
		router.Use(middleware.CORS([]string{opts.FrontendURL}))
	}

	s := &Server{
		router:    router,
		port:      opts.Port,
		stores:    opts.Stores,
		guard:     authz.NewGuard(opts.Stores, opts.Logger, m),
		producer:  notification.NewProducer(opts.Logger, m),
		log:       opts.Logger,
		registry:  registry,
		jwtSecret: opts.JWTSecret,
		devTokens: opts.DevTokens,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close は共有ストアを閉じる。
func (s *Server) Close() error {
	return s.stores.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	if s.devTokens {
		// 開発用トークン発行（認証不要）
		s.router.POST("/auth/dev-token", s.handleDevToken())
	}

	api := s.router.Group("/api")
	api.Use(middleware.Session(s.jwtSecret))
	{
		// 認証済みユーザー
		api.GET("/me", s.handleMe())
		api.GET("/notifications", s.handleListMyNotifications())

		// 管理者専用。認可はハンドラ内のガードで行う
		admin := api.Group("/admin")
		{
			admin.GET("/characters/queue", s.handleCharacterQueue())
			admin.GET("/characters/:id", s.handleGetCharacter())
			admin.POST("/characters/:id/approve", s.handleReviewCharacter(reviewApprove))
			admin.POST("/characters/:id/reject", s.handleReviewCharacter(reviewReject))
			admin.GET("/notifications", s.handleListAllNotifications())
			admin.POST("/notifications", s.handleCreateNotification())
		}
	}

	// メトリクス
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dashboard"})
	})
}
