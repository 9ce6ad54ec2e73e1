package cron

import (
	log "log/slog"

	pkgerr "github.com/pkg/errors"
)

// InitCron 注册并启动全部定时任务
func InitCron(mgr *Manager) error {
	log.Info("Cron Jobs starting...", "provision_spec", mgr.provisionSpec)
	if err := mgr.RegisterJobs(); err != nil {
		return pkgerr.Wrapf(err, "register provision job %q", mgr.provisionSpec)
	}
	mgr.Start()
	return nil
}
