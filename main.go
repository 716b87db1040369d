package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "EMS-backend/docs"
	"EMS-backend/internal/attendance"
	"EMS-backend/internal/platform/auth"
	"EMS-backend/internal/platform/db"
	"EMS-backend/internal/profile"
	"EMS-backend/internal/users"
)

// @title EMS-backend API
// @version 1.0
// @description 勤怠・ユーザ管理バックエンド
// @BasePath /
func main() {
	// .env は任意（JWT_SECRET などの上書き用）
	_ = godotenv.Load()

	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if mode != "dev" && mode != "release" {
		log.Println("Usage: set mode to dev or release in config/config.yaml")
		return
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("[ERROR] jwt secret is not configured (config or JWT_SECRET)")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	attendanceSvc, err := attendance.NewService(conn, cfg.Attendance)
	if err != nil {
		log.Fatalf("[ERROR] attendance policy: %v", err)
	}
	log.Printf("[INFO] attendance policy: %s", attendanceSvc.PolicyInfo())

	secret := []byte(cfg.JWT.Secret)
	authSvc := auth.NewService(conn, secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	usersSvc := users.NewService(conn)
	profileSvc := profile.NewService(conn, cfg.Uploads.Dir)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.Server.ClientOrigin},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// 認証不要
	auth.RegisterRoutes(r.Group("/auth"), authSvc)

	// 要認証
	requireAuth := auth.RequireAuth(secret)
	requireHead := auth.RequireRole(auth.RoleHead)

	attendance.RegisterRoutes(r.Group("/attendance", requireAuth), attendanceSvc)
	attendance.RegisterAdminRoutes(r.Group("/attendance/admin", requireAuth, requireHead), attendanceSvc)

	profile.RegisterRoutes(r.Group("/profile", requireAuth), profileSvc)

	users.RegisterRoutes(r.Group("/user", requireAuth), usersSvc)
	users.RegisterAdminRoutes(r.Group("/admin", requireAuth, requireHead), usersSvc)

	// アップロード済みアバター
	uploadsDir := cfg.Uploads.Dir
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	r.Static("/uploads", uploadsDir)

	// API ドキュメント
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":5000"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
