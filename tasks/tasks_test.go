package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mitodev/mito/config"
	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Tag{},
		&models.Category{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// captureLogs swaps the global logger for an observer core for one test.
func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	prevLogger, prevSugar := utils.Logger, utils.Sugar
	utils.Logger = zap.New(core)
	utils.Sugar = utils.Logger.Sugar()
	t.Cleanup(func() {
		utils.Logger, utils.Sugar = prevLogger, prevSugar
	})
	return logs
}

func hasLogContaining(logs *observer.ObservedLogs, substr string) bool {
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}

func marshalTask(t *testing.T, name string, payload interface{}) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body, err := json.Marshal(Task{ID: "test-task", Name: name, Payload: raw})
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	return string(body)
}

func TestDispatchPostCreated(t *testing.T) {
	db := setupDB(t)
	logs := captureLogs(t)

	user := models.User{Username: "alice", Nickname: "alice", IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	post := models.Post{Title: "hello", Content: "body", AuthorID: user.ID}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	w := NewWorker(db, nil, "test:tasks")
	w.Dispatch(marshalTask(t, TaskPostCreated, PostCreatedPayload{PostID: post.ID}))

	want := fmt.Sprintf("Post details: id=%d title=%q author=alice", post.ID, "hello")
	if !hasLogContaining(logs, want) {
		t.Errorf("missing log %q in %v", want, logs.All())
	}
}

func TestDispatchPostCreatedMissingPost(t *testing.T) {
	db := setupDB(t)
	logs := captureLogs(t)

	w := NewWorker(db, nil, "test:tasks")
	w.Dispatch(marshalTask(t, TaskPostCreated, PostCreatedPayload{PostID: 9999}))

	if !hasLogContaining(logs, "Post with id 9999 does not exist") {
		t.Errorf("missing not-found log, got %v", logs.All())
	}
}

func TestDispatchUnknownTask(t *testing.T) {
	db := setupDB(t)
	logs := captureLogs(t)

	w := NewWorker(db, nil, "test:tasks")
	w.Dispatch(marshalTask(t, "no.such.task", map[string]int{}))

	if !hasLogContaining(logs, "unknown task no.such.task") {
		t.Errorf("unknown task must be logged and dropped, got %v", logs.All())
	}
}

func TestDispatchGarbage(t *testing.T) {
	db := setupDB(t)
	logs := captureLogs(t)

	w := NewWorker(db, nil, "test:tasks")
	w.Dispatch("{not json")

	if !hasLogContaining(logs, "undecodable task dropped") {
		t.Errorf("garbage must be logged and dropped, got %v", logs.All())
	}
}

func TestHeartbeat(t *testing.T) {
	db := setupDB(t)
	logs := captureLogs(t)

	user := models.User{Username: "alice", Nickname: "alice", IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	for i := 0; i < 3; i++ {
		post := models.Post{Title: fmt.Sprintf("p%d", i), Content: "body", AuthorID: user.ID}
		if err := db.Create(&post).Error; err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	s := NewScheduler(db)
	s.Heartbeat()

	if !hasLogContaining(logs, "Do Heartbeat for posts, found 3 posts") {
		t.Errorf("missing heartbeat log, got %v", logs.All())
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(setupDB(t))
	if err := s.Start("not a cron spec"); err == nil {
		s.Stop()
		t.Fatal("invalid spec must be rejected")
	}
}
