package cron

import (
	"Attestor/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine         *cron.Cron
	anchorAuditJob *job.AnchorAuditJob
	auditSpec      string
}

// NewCronManager auditSpec 支持秒级 cron 表达式或 @every 描述符, 为空则不注册
func NewCronManager(anchorAuditJob *job.AnchorAuditJob, auditSpec string) *Manager {
	return &Manager{
		engine:         cron.New(cron.WithSeconds()),
		anchorAuditJob: anchorAuditJob,
		auditSpec:      auditSpec,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if s.auditSpec == "" {
		log.Info("Anchor audit job disabled")
		return nil
	}
	if _, err := s.engine.AddJob(s.auditSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(s.anchorAuditJob)); err != nil {
		return err
	}
	return nil
}

// Entries 已注册任务数
func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop waits for running jobs to finish.
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
