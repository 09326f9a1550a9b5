// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mossy/internal/metrics"
	"github.com/hitoshi/mossy/internal/middleware"
)

// requestTimeout は1リクエストあたりの処理時間の上限。
const requestTimeout = 15 * time.Second

// HealthChecker はデータベースの疎通確認を行うインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer
	HealthChecker     HealthChecker

	AuthService  AuthServiceInterface
	UserService  UserServiceInterface
	TaskService  TaskServiceInterface
	EventService EventServiceInterface
	TagService   TagServiceInterface
	DebugService DebugServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → StatusMetrics → CORS → Timeout
//
// 認証が必要なルートにはさらに TokenAuth → RateLimit(General) を適用する。
// ログインにはIP単位のRateLimit(Login)のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewStatusMetricsMiddleware(collector))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(chimw.Timeout(requestTimeout))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	taskHandler := NewTaskHandler(deps.TaskService)
	eventHandler := NewEventHandler(deps.EventService)
	tagHandler := NewTagHandler(deps.TagService)
	debugHandler := NewDebugHandler(deps.DebugService)

	// --- 認証不要のルート ---

	r.Get("/", index)
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.SetupMetricsRoute(deps.MetricsGatherer))
	}

	r.With(deps.RateLimiter.LoginMiddleware()).Post("/api/log-in", authHandler.LogIn)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: TokenAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewTokenAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー（apple_user_idでも照合する）
		r.Post("/api/user", userHandler.GetUser)
		r.Patch("/api/user/theme", userHandler.UpdateTheme)

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Patch("/", taskHandler.UpdateTask)
			r.Delete("/", taskHandler.DeleteTasks)
		})

		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Post("/", eventHandler.CreateEvent)
			r.Patch("/", eventHandler.UpdateEvent)
			r.Delete("/", eventHandler.DeleteEvents)
		})
		r.Get("/api/events-string", eventHandler.ListEventsWithTaskName)

		r.Route("/api/tags", func(r chi.Router) {
			r.Get("/", tagHandler.ListTags)
			r.Post("/", tagHandler.CreateTag)
			r.Patch("/", tagHandler.UpdateTag)
			r.Delete("/", tagHandler.DeleteTags)
		})

		// 管理者向けテストデータ
		r.Route("/api/debug", func(r chi.Router) {
			r.Post("/tasks", debugHandler.CreateTasks)
			r.Delete("/tasks", debugHandler.DeleteTasks)
			r.Post("/events", debugHandler.CreateEvents)
			r.Delete("/events", debugHandler.DeleteEvents)
			r.Post("/tags", debugHandler.CreateTags)
			r.Delete("/tags", debugHandler.DeleteTags)
		})
	})

	return r
}

// index は疎通確認用の固定文字列を返す。
// GET /
func index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Hello, world!"))
}

// healthHandler はデータベースに到達できれば200を返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
