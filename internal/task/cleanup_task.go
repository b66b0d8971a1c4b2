package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCleanupSpec 每 10 分钟（秒级 cron 表达式）
const DefaultCleanupSpec = "0 */10 * * * *"

// SessionCleaner 可以清理过期会话的服务
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupTarget 具名清理目标
type CleanupTarget struct {
	Name    string
	Cleaner SessionCleaner
}

// ==================== 过期会话清理任务 ====================

// CleanupTask 定时清理过期的向导会话和登录会话
type CleanupTask struct {
	targets []CleanupTarget
	spec    string
	timeout time.Duration
	cron    *cron.Cron

	running bool
	mutex   sync.Mutex
}

func NewCleanupTask(spec string, targets ...CleanupTarget) *CleanupTask {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	return &CleanupTask{
		targets: targets,
		spec:    spec,
		timeout: 2 * time.Minute,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务，表达式无效时返回错误
func (t *CleanupTask) Start() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.running {
		return nil
	}

	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.running = true
	zap.L().Info("[CleanupTask] 已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止任务，等待正在执行的清理结束
func (t *CleanupTask) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.running {
		return
	}
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.running = false
	zap.L().Info("[CleanupTask] 已停止")
}

// RunOnce 执行一次清理，返回每个目标的清理数量；单个目标失败不影响其他目标
func (t *CleanupTask) RunOnce(ctx context.Context) map[string]int64 {
	result := make(map[string]int64, len(t.targets))
	for _, target := range t.targets {
		select {
		case <-ctx.Done():
			zap.L().Warn("[CleanupTask] 任务超时停止")
			return result
		default:
		}

		n, err := target.Cleaner.CleanupExpired(ctx)
		if err != nil {
			zap.L().Error("[CleanupTask] 清理失败", zap.String("target", target.Name), zap.Error(err))
			continue
		}
		result[target.Name] = n
		if n > 0 {
			zap.L().Info("[CleanupTask] 清理过期会话", zap.String("target", target.Name), zap.Int64("count", n))
		}
	}
	return result
}
