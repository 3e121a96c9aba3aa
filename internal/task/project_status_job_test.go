package task

import (
	"context"
	"testing"
	"time"

	"github.com/blues/fundhive/internal/config"
	"github.com/blues/fundhive/internal/model"
	"github.com/blues/fundhive/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.Init(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedProject(t *testing.T, db *gorm.DB, startedDaysAgo, duration int, current string) *model.ProjectModel {
	t.Helper()
	project := &model.ProjectModel{
		OwnerId:       "owner",
		Title:         "SolarTech",
		Description:   "Rooftop solar",
		Category:      "energy",
		FundingGoal:   decimal.NewFromInt(10000),
		EquityOffered: decimal.NewFromInt(10),
		CurrentAmount: decimal.RequireFromString(current),
		Version:       3,
		StartDate:     testNow.Add(-time.Duration(startedDaysAgo) * 24 * time.Hour),
		DurationDays:  duration,
		Status:        model.ProjectStatusOpen,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func newJob(db *gorm.DB, workers int) *ProjectStatusJob {
	job := NewProjectStatusJob(db, &config.Config{Task: config.TaskConfig{Interval: 1, Workers: workers}})
	job.now = func() time.Time { return testNow }
	return job
}

func reload(t *testing.T, db *gorm.DB, id int64) model.ProjectModel {
	t.Helper()
	var project model.ProjectModel
	require.NoError(t, db.First(&project, id).Error)
	return project
}

func TestSweepClosesExpiredProjects(t *testing.T) {
	db := newTestDB(t)
	expired := seedProject(t, db, 40, 30, "4200")
	endsNow := seedProject(t, db, 30, 30, "0")
	active := seedProject(t, db, 10, 30, "100")

	closed, err := newJob(db, 2).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	got := reload(t, db, expired.Id)
	assert.Equal(t, model.ProjectStatusClosed, got.Status)
	assert.True(t, got.CurrentAmount.Equal(decimal.NewFromInt(4200)))
	assert.Equal(t, int64(3), got.Version)

	assert.Equal(t, model.ProjectStatusClosed, reload(t, db, endsNow.Id).Status)
	assert.Equal(t, model.ProjectStatusOpen, reload(t, db, active.Id).Status)
}

func TestSweepIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 20; i++ {
		seedProject(t, db, 45, 30, "10")
	}

	job := newJob(db, 4)
	closed, err := job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, closed)

	closed, err = job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestSweepWithoutProjects(t *testing.T) {
	closed, err := newJob(newTestDB(t), 0).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestManagerRegistersJobs(t *testing.T) {
	m, err := NewManager(newTestDB(t), &config.Config{Task: config.TaskConfig{Interval: 3600}})
	require.NoError(t, err)
	require.NoError(t, m.RegisterJobs())
	assert.Equal(t, []string{"project_status_updater"}, m.Jobs())

	m.scheduler.Start()
	m.Stop()
}
