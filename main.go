package main

//go:generate swag init -g main.go -o docs

import (
	"log"

	"github.com/mitodev/mito/config"
	_ "github.com/mitodev/mito/docs"
	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/routes"
	"github.com/mitodev/mito/tasks"
	"github.com/mitodev/mito/utils"
)

// @title           Mito Blog API
// @version         1.0.0
// @description     Blog backend with posts, tags, categories, JWT auth and WeChat mini-program login.
// @host            localhost:8000
// @BasePath        /
// @schemes         http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Tag{},
		&models.Category{},
	)

	rdb := utils.GetRedis()
	broker := tasks.NewBroker(rdb, cfg.TaskQueue)

	worker := tasks.NewWorker(db, rdb, cfg.TaskQueue)
	worker.Start()

	scheduler := tasks.NewScheduler(db)
	if err := scheduler.Start(cfg.HeartbeatSpec); err != nil {
		utils.Sugar.Fatalf("start scheduler: %v", err)
	}

	r := routes.SetupRouter(db, broker, utils.NewWeChatClient(cfg))

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, worker.Stop, scheduler.Stop); err != nil {
		utils.Sugar.Fatalf("server error: %v", err)
	}
}
