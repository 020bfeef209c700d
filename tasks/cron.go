package tasks

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/utils"
)

// Scheduler runs periodic jobs on a cron-with-seconds schedule, independent
// of request traffic.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewScheduler returns a stopped Scheduler.
func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		db:   db,
	}
}

// Start registers the heartbeat at the given spec and starts the scheduler.
func (s *Scheduler) Start(heartbeatSpec string) error {
	if _, err := s.cron.AddFunc(heartbeatSpec, s.Heartbeat); err != nil {
		return err
	}
	s.cron.Start()
	utils.Sugar.Infof("cron started, heartbeat spec %q", heartbeatSpec)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.Sugar.Info("cron stopped")
}

// Heartbeat counts posts and logs the result, proving the worker side is
// alive and can reach the database.
func (s *Scheduler) Heartbeat() {
	var count int64
	if err := s.db.Model(&models.Post{}).Count(&count).Error; err != nil {
		utils.Sugar.Errorf("heartbeat query failed: %v", err)
		return
	}
	utils.Sugar.Infof("Do Heartbeat for posts, found %d posts", count)
}
