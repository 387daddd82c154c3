package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/bulknotify/internal/summary"
	"github.com/nao1215/bulknotify/pkg/config"
	"github.com/nao1215/bulknotify/pkg/event"
	"github.com/nao1215/bulknotify/pkg/middleware"
)

// Server はキャンペーンサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// store はサマリーレコードストア。
	store *summary.Store
	// schedules は強制完了シグナルの送出予定ストア。
	schedules *ScheduleStore
	// publisher はKafkaへの発行を担当する。
	publisher Publisher
	// scheduler は強制完了シグナルの遅延送出を担当する。
	scheduler *Scheduler
	// dispatchTopic は送信指示の発行先トピック名。
	dispatchTopic string
	// forceCompleteDelay はキャンペーン作成から強制完了シグナル送出までの遅延。
	forceCompleteDelay time.Duration
}

// NewServer は新しいキャンペーンサーバーを生成する。
// SQLiteデータベースの初期化とKafkaプロデューサーの作成を行う。
func NewServer(cfg config.Config) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.SummaryDBPath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	store, err := summary.NewStore(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("サマリーストアの初期化に失敗: %w", err)
	}

	schedules, err := NewScheduleStore(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("送出予定ストアの初期化に失敗: %w", err)
	}

	publisher, err := NewKafkaPublisher(cfg.KafkaBrokers)
	if err != nil {
		return nil, fmt.Errorf("Kafkaプロデューサーの作成に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:             router,
		port:               cfg.Port,
		db:                 sqlDB,
		store:              store,
		schedules:          schedules,
		publisher:          publisher,
		scheduler:          NewScheduler(schedules, publisher, cfg.OutcomeTopic),
		dispatchTopic:      cfg.DispatchTopic,
		forceCompleteDelay: cfg.ForceCompleteDelay,
	}
	s.setupRoutes(cfg.JWTSecret)

	return s, nil
}

// Run はスケジューラーとHTTPサーバーを起動する。
// ctxがキャンセルされるとスケジューラーは停止する。
func (s *Server) Run(ctx context.Context) error {
	s.scheduler.Start(ctx)
	defer s.scheduler.Stop()
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(jwtSecret string) {
	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	{
		campaigns := api.Group("/campaigns")
		{
			// キャンペーン作成（ファンアウト）
			campaigns.POST("", s.handleCreate())
			// サマリーレコードのポイントリード
			campaigns.GET("/:id", s.handleGet())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "campaign"})
	})
}

// createRequest はキャンペーン作成リクエストのJSON構造。
type createRequest struct {
	// Title は通知のタイトル。
	Title string `json:"title" binding:"required"`
	// Message は通知メッセージ。
	Message string `json:"message" binding:"required"`
	// Recipients は通知の宛先一覧。
	Recipients []string `json:"recipients" binding:"required,min=1"`
}

// handleCreate はキャンペーンを作成しファンアウトするハンドラ。
// サマリーレコードを生成して期待総数を固定し、受信者ごとの送信指示を
// Kafkaへ発行し、強制完了シグナルの送出予定を登録する。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		notificationID := uuid.New().String()
		log.Printf("キャンペーンを作成します: id=%s, recipients=%d, operator=%s",
			notificationID, len(req.Recipients), middleware.GetOperatorID(c))

		// 期待総数はここで固定され、以後変更されない
		if err := s.store.Create(c.Request.Context(), notificationID, int64(len(req.Recipients))); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "サマリーレコードの作成に失敗しました"})
			log.Printf("サマリーレコード作成エラー: %v", err)
			return
		}

		// 強制完了シグナルの送出予定をファンアウトより先に登録する。
		// 予定のないキャンペーンは完了保証を失うため、登録できない場合は
		// 送信指示を1件も発行せずにエラーを返す
		dueAt := time.Now().UTC().Add(s.forceCompleteDelay)
		if err := s.schedules.Add(c.Request.Context(), notificationID, dueAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "強制完了予定の登録に失敗しました"})
			log.Printf("強制完了予定の登録に失敗: id=%s: %v", notificationID, err)
			return
		}

		for _, recipient := range req.Recipients {
			payload, err := event.EncodeDispatch(&event.Dispatch{
				NotificationID: notificationID,
				Recipient:      recipient,
				Title:          req.Title,
				Message:        req.Message,
			})
			if err != nil {
				log.Printf("送信指示のエンコードに失敗: id=%s: %v", notificationID, err)
				continue
			}

			// 発行に失敗した宛先の配信結果は届かないが、その不足分は
			// 強制完了がunknownとして計上する
			if err := s.publisher.Publish(s.dispatchTopic, notificationID, payload); err != nil {
				log.Printf("送信指示の発行に失敗: id=%s, recipient=%s: %v", notificationID, recipient, err)
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":                  notificationID,
			"total_message_count": len(req.Recipients),
		})
	}
}

// summaryResponse はサマリーレコードのJSONレスポンス構造。
type summaryResponse struct {
	// ID はキャンペーンの一意識別子。
	ID string `json:"id"`
	// TotalMessageCount は期待されるOutcomeイベントの総数。
	TotalMessageCount int64 `json:"total_message_count"`
	// Succeeded は配信成功の件数。
	Succeeded int64 `json:"succeeded"`
	// Throttled はスロットリングされた件数。
	Throttled int64 `json:"throttled"`
	// Failed は配信失敗の件数。
	Failed int64 `json:"failed"`
	// Unknown は結果が観測されなかった件数。
	Unknown int64 `json:"unknown"`
	// IsCompleted は完了フラグ。
	IsCompleted bool `json:"is_completed"`
	// SentDate は完了時刻（RFC3339形式）。未完了の場合は空。
	SentDate string `json:"sent_date,omitempty"`
}

// handleGet はサマリーレコードをポイントリードするハンドラ。
// 集約の進行状況と完了状態を運用目的で確認するための内部APIである。
func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		notificationID := c.Param("id")
		if notificationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "キャンペーンIDが必要です"})
			return
		}

		rec, err := s.store.Get(c.Request.Context(), notificationID)
		if err != nil {
			if errors.Is(err, summary.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "キャンペーンが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "サマリーレコードの取得に失敗しました"})
			log.Printf("サマリーレコード取得エラー: %v", err)
			return
		}

		resp := summaryResponse{
			ID:                rec.ID,
			TotalMessageCount: rec.TotalMessageCount,
			Succeeded:         rec.Succeeded,
			Throttled:         rec.Throttled,
			Failed:            rec.Failed,
			Unknown:           rec.Unknown,
			IsCompleted:       rec.IsCompleted,
		}
		if rec.SentDate != nil {
			resp.SentDate = rec.SentDate.Format(time.RFC3339)
		}
		c.JSON(http.StatusOK, resp)
	}
}
