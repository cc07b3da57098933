package service

import (
	"testing"
	"time"

	"transcribe-cafe/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProcessingJob(t *testing.T, svc *JobService, startedAgo time.Duration) *model.Job {
	t.Helper()
	video, err := svc.CreateVideo("https://x/y")
	require.NoError(t, err)
	job := pendingJobFor(t, svc.db, video.ID)
	_, err = svc.Claim(job.ID, "w1")
	require.NoError(t, err)

	started := time.Now().UTC().Add(-startedAgo)
	require.NoError(t, svc.db.Model(&model.Job{}).Where("id = ?", job.ID).
		Update("started_at", started).Error)
	return job
}

func TestStaleSweep_LogsOnlyByDefault(t *testing.T) {
	svc, db := newTestService(t)
	job := seedProcessingJob(t, svc, 2*time.Hour)

	monitor := NewStaleJobService(db, testLogger(), 30, false)
	monitor.sweep()

	// requeue 关闭时只告警，不改状态
	var got model.Job
	require.NoError(t, db.First(&got, "id = ?", job.ID).Error)
	assert.Equal(t, model.JobStatusProcessing, got.Status)
}

func TestStaleSweep_RequeuesWhenEnabled(t *testing.T) {
	svc, db := newTestService(t)
	stale := seedProcessingJob(t, svc, 2*time.Hour)
	fresh := seedProcessingJob(t, svc, time.Minute)

	monitor := NewStaleJobService(db, testLogger(), 30, true)
	monitor.sweep()

	var got model.Job
	require.NoError(t, db.First(&got, "id = ?", stale.ID).Error)
	assert.Equal(t, model.JobStatusPending, got.Status)
	assert.Nil(t, got.WorkerID)
	assert.Nil(t, got.StartedAt)

	// 未超过阈值的任务不受影响
	got = model.Job{}
	require.NoError(t, db.First(&got, "id = ?", fresh.ID).Error)
	assert.Equal(t, model.JobStatusProcessing, got.Status)
}

func TestRequeueJob_SkipsTerminalJobs(t *testing.T) {
	svc, db := newTestService(t)
	job := seedProcessingJob(t, svc, 2*time.Hour)

	// 扫描和提交之间任务进入了终态，条件更新不能覆盖它
	_, err := svc.SubmitResult(job.ID, ResultInput{Status: model.JobStatusCompleted})
	require.NoError(t, err)

	monitor := NewStaleJobService(db, testLogger(), 30, true)
	require.NoError(t, monitor.requeueJob(job.ID))

	var got model.Job
	require.NoError(t, db.First(&got, "id = ?", job.ID).Error)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
}
