package job

import (
	"Fellowship/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// Reconciler 补齐分类会话成员
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// ProvisionJob 定时把漏掉的成员补进公告/分堂/小组会话
type ProvisionJob struct {
	reconciler Reconciler
	timeout    time.Duration
}

func NewProvisionJob(reconciler Reconciler, timeout time.Duration) *ProvisionJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ProvisionJob{reconciler: reconciler, timeout: timeout}
}

func (s *ProvisionJob) Run() {
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), "job-provision-"+uuid.NewString()), s.timeout)
	defer cancel()

	start := time.Now()
	log.InfoContext(ctx, "start provision reconcile job")
	if err := s.reconciler.Reconcile(ctx); err != nil {
		log.ErrorContext(ctx, "provision reconcile job failed", "err", err)
		return
	}
	log.InfoContext(ctx, "provision reconcile job finished", "cost", time.Since(start).String())
}
