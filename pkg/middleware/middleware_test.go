package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("パニックが発生した場合500が返りパニック内容が漏れないこと", func(t *testing.T) {
		t.Parallel()

		log, hook := test.NewNullLogger()
		router := gin.New()
		router.Use(Recovery(log))
		router.GET("/panic", func(_ *gin.Context) {
			panic("secret detail")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "INTERNAL_SERVER_ERROR" {
			t.Errorf("error = %q, want %q", body["error"], "INTERNAL_SERVER_ERROR")
		}
		entry := hook.LastEntry()
		if entry == nil || entry.Data["panic"] != "secret detail" {
			t.Errorf("パニック値がログに記録されていない: %+v", entry)
		}
	})

	t.Run("パニック後もサーバーが次のリクエストを処理できること", func(t *testing.T) {
		t.Parallel()

		log, _ := test.NewNullLogger()
		router := gin.New()
		router.Use(Recovery(log))
		router.GET("/panic", func(_ *gin.Context) {
			panic(http.ErrAbortHandler)
		})
		router.GET("/ok", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "recovered"})
		})

		w1 := httptest.NewRecorder()
		router.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if w1.Code != http.StatusInternalServerError {
			t.Errorf("1回目のステータスコード = %d, want %d", w1.Code, http.StatusInternalServerError)
		}

		w2 := httptest.NewRecorder()
		router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if w2.Code != http.StatusOK {
			t.Errorf("2回目のステータスコード = %d, want %d", w2.Code, http.StatusOK)
		}
	})
}

// TestRequestLogger はリクエストログとメトリクスの記録を検証する。
func TestRequestLogger(t *testing.T) {
	t.Parallel()

	log, hook := test.NewNullLogger()
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_duration_seconds"}, []string{"method", "route", "status"})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "user-log")
		c.Next()
	})
	router.Use(RequestLogger(log, duration))
	router.GET("/items/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/abc", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("ログが記録されていない")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("level = %v, want %v", entry.Level, logrus.WarnLevel)
	}
	if entry.Data["route"] != "/items/:id" {
		t.Errorf("route = %v, want %q", entry.Data["route"], "/items/:id")
	}
	if entry.Data["user_id"] != "user-log" {
		t.Errorf("user_id = %v, want %q", entry.Data["user_id"], "user-log")
	}
	if got := testutil.CollectAndCount(duration); got != 1 {
		t.Errorf("メトリクスの系列数 = %d, want 1", got)
	}
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	newRouter := func(handlerCalled *bool) *gin.Engine {
		router := gin.New()
		router.Use(CORS([]string{"http://localhost:3000", "https://example.com"}))
		handler := func(c *gin.Context) {
			*handlerCalled = true
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		}
		router.GET("/test", handler)
		router.OPTIONS("/test", handler)
		return router
	}

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantHandler bool
	}{
		{"許可されたオリジンにCORSヘッダーが設定されること", http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000", true},
		{"許可リストの2番目のオリジンでも設定されること", http.MethodGet, "https://example.com", http.StatusOK, "https://example.com", true},
		{"許可されていないオリジンには設定されないこと", http.MethodGet, "https://evil.com", http.StatusOK, "", true},
		{"Originヘッダーが無い場合は設定されないこと", http.MethodGet, "", http.StatusOK, "", true},
		{"OPTIONSリクエストで204が返り中断されること", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "http://localhost:3000", false},
		{"許可されていないオリジンのOPTIONSも204が返ること", http.MethodOptions, "https://evil.com", http.StatusNoContent, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handlerCalled := false
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			newRouter(&handlerCalled).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" {
				if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
					t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
				}
			}
			if handlerCalled != tt.wantHandler {
				t.Errorf("handlerCalled = %v, want %v", handlerCalled, tt.wantHandler)
			}
		})
	}
}
