package task

import (
	"context"

	"go.uber.org/zap"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台任务
// 目前只有过期会话清理；HTTP 服务之外的进程（cleanup 子命令）也通过它触发
type TaskManager struct {
	cleanupTask *CleanupTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	WizardSessions SessionCleaner // 向导会话
	AuthSessions   SessionCleaner // 登录会话
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	CleanupEnabled bool
	CleanupSpec    string
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		CleanupEnabled: true,
		CleanupSpec:    DefaultCleanupSpec,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	var targets []CleanupTarget
	if deps.WizardSessions != nil {
		targets = append(targets, CleanupTarget{Name: "wizard", Cleaner: deps.WizardSessions})
	}
	if deps.AuthSessions != nil {
		targets = append(targets, CleanupTarget{Name: "auth", Cleaner: deps.AuthSessions})
	}
	if cfg.CleanupEnabled && len(targets) > 0 {
		tm.cleanupTask = NewCleanupTask(cfg.CleanupSpec, targets...)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	zap.L().Info("[TaskManager] 正在启动后台任务...")

	if tm.cleanupTask != nil {
		if err := tm.cleanupTask.Start(); err != nil {
			return err
		}
	}

	zap.L().Info("[TaskManager] 后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	zap.L().Info("[TaskManager] 正在停止后台任务...")

	if tm.cleanupTask != nil {
		tm.cleanupTask.Stop()
	}

	zap.L().Info("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerCleanup 立即执行一次过期会话清理
func (tm *TaskManager) TriggerCleanup(ctx context.Context) (map[string]int64, error) {
	if tm.cleanupTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.cleanupTask.RunOnce(ctx), nil
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"cleanup": tm.cleanupTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
