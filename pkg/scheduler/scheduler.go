package scheduler

import (
	"context"
	"sync"
	"time"

	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

type Job func(ctx context.Context) error

// Scheduler 以固定间隔执行后台任务，Stop 或 ctx 取消后退出
type Scheduler struct {
	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.Mutex
}

func New(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// Every 按间隔执行任务，间隔 <= 0 时不启用
func (s *Scheduler) Every(name string, interval time.Duration, job Job) bool {
	if interval <= 0 {
		logger.Log.Info("Scheduled job disabled", zap.String("job", name))
		return false
	}

	s.mu.Lock()
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.run(name, job)
			}
		}
	}()

	logger.Log.Info("Scheduled job registered", zap.String("job", name), zap.Duration("interval", interval))
	return true
}

func (s *Scheduler) run(name string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Scheduled job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := job(s.ctx); err != nil {
		logger.Log.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
		return
	}
	logger.Log.Debug("Scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// Stop 取消所有任务并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
