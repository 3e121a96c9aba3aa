package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/fundhive/internal/config"
	"github.com/blues/fundhive/internal/logger"
	"github.com/blues/fundhive/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

const (
	defaultInterval = 60 * time.Second
	defaultWorkers  = 8
)

// ProjectStatusJob 将已过截止时间的项目标记为 closed
//
// 只修改 status 字段，不改动 current_amount 和 version，
// 已截止的项目仍然可以继续接收出资。
type ProjectStatusJob struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

// NewProjectStatusJob 创建项目状态任务
func NewProjectStatusJob(db *gorm.DB, cfg *config.Config) *ProjectStatusJob {
	return &ProjectStatusJob{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// GetName 获取任务名称
func (j *ProjectStatusJob) GetName() string {
	return "project_status_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectStatusJob) GetSchedule() gocron.JobDefinition {
	interval := defaultInterval
	if j.config != nil && j.config.Task.Interval > 0 {
		interval = time.Duration(j.config.Task.Interval) * time.Second
	}
	return gocron.DurationJob(interval)
}

func (j *ProjectStatusJob) workers() int {
	if j.config != nil && j.config.Task.Workers > 0 {
		return j.config.Task.Workers
	}
	return defaultWorkers
}

// Execute 执行任务
func (j *ProjectStatusJob) Execute() {
	logger.Info("Starting project status task")

	closed, err := j.Sweep(context.Background())
	if err != nil {
		logger.Error("Project status task failed: %v", err)
		return
	}

	logger.Info("Project status task completed. Closed %d projects", closed)
}

// Sweep 关闭所有已过截止时间的 open 项目，返回关闭数量
func (j *ProjectStatusJob) Sweep(ctx context.Context) (int, error) {
	now := j.now()

	// 截止时间由 start_date 和 duration_days 计算，不同数据库的日期函数不一致，在内存中过滤
	var projects []model.ProjectModel
	err := j.db.WithContext(ctx).
		Select("id", "start_date", "duration_days").
		Where("status = ?", model.ProjectStatusOpen).
		Find(&projects).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch open projects: %w", err)
	}

	var expired []int64
	for i := range projects {
		if !projects[i].Deadline().After(now) {
			expired = append(expired, projects[i].Id)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(j.workers())
	if err != nil {
		return 0, fmt.Errorf("failed to create pool: %w", err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		closed atomic.Int64
	)
	for _, id := range expired {
		id := id
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if j.close(ctx, id) {
				closed.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit project %d to pool: %v", id, err)
		}
	}
	wg.Wait()

	return int(closed.Load()), nil
}

// close 仅当项目仍为 open 时更新状态
func (j *ProjectStatusJob) close(ctx context.Context, id int64) bool {
	result := j.db.WithContext(ctx).
		Model(&model.ProjectModel{}).
		Where("id = ? AND status = ?", id, model.ProjectStatusOpen).
		Update("status", model.ProjectStatusClosed)
	if result.Error != nil {
		logger.Error("Failed to close project %d: %v", id, result.Error)
		return false
	}
	if result.RowsAffected == 0 {
		return false
	}

	logger.Info("Closed project %d", id)
	return true
}
