package service

import (
	"sync"
	"time"

	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/model"

	"gorm.io/gorm"
)

const (
	// StaleCheckInterval 滞留任务检查间隔
	StaleCheckInterval = 5 * time.Minute
)

// StaleJobService 滞留任务监控：worker 崩溃后任务会永远停在 processing，
// 基础协议没有租约和心跳，这里周期性扫描并告警；开启 requeue 后把滞留任务
// 原子地重置回 pending 供其他 worker 重新认领。
type StaleJobService struct {
	logger     *logger.Logger
	db         *gorm.DB
	staleAfter time.Duration
	requeue    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
	ticker     *time.Ticker
}

// NewStaleJobService 创建滞留任务监控服务
func NewStaleJobService(db *gorm.DB, log *logger.Logger, staleAfterMin int, requeue bool) *StaleJobService {
	return &StaleJobService{
		logger:     log,
		db:         db,
		staleAfter: time.Duration(staleAfterMin) * time.Minute,
		requeue:    requeue,
		stopChan:   make(chan struct{}),
	}
}

// Start 启动监控
func (s *StaleJobService) Start() {
	s.ticker = time.NewTicker(StaleCheckInterval)

	s.wg.Add(1)
	go s.run()

	s.logger.Infof("滞留任务监控已启动: 阈值=%v requeue=%v", s.staleAfter, s.requeue)
}

// Stop 停止监控
func (s *StaleJobService) Stop() {
	close(s.stopChan)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.wg.Wait()
	s.logger.Info("滞留任务监控已停止")
}

// run 运行监控循环
func (s *StaleJobService) run() {
	defer s.wg.Done()

	// 启动后立即执行一次检查
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

// sweep 扫描超过阈值仍在 processing 的任务
func (s *StaleJobService) sweep() {
	cutoff := time.Now().UTC().Add(-s.staleAfter)

	var jobs []model.Job
	err := s.db.Where("status = ? AND started_at < ?", model.JobStatusProcessing, cutoff).
		Find(&jobs).Error
	if err != nil {
		s.logger.Errorf("滞留任务扫描失败: %v", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	for _, job := range jobs {
		worker := ""
		if job.WorkerID != nil {
			worker = *job.WorkerID
		}
		s.logger.Warnf("发现滞留任务: job=%s video=%s worker=%s started_at=%v",
			job.ID, job.VideoID, worker, job.StartedAt)

		if !s.requeue {
			continue
		}
		if err := s.requeueJob(job.ID); err != nil {
			s.logger.Errorf("滞留任务重置失败: job=%s err=%v", job.ID, err)
		}
	}
}

// requeueJob 把滞留任务重置回 pending。条件更新限定 status = processing，
// 避免覆盖刚好在此期间提交的终态结果。
func (s *StaleJobService) requeueJob(jobID string) error {
	res := s.db.Model(&model.Job{}).
		Where("id = ? AND status = ?", jobID, model.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":     model.JobStatusPending,
			"worker_id":  nil,
			"started_at": nil,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.logger.Infof("滞留任务已重新入队: job=%s", jobID)
	}
	return nil
}
