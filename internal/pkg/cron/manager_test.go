package cron

import (
	"Fellowship/internal/job"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type noopReconciler struct{}

func (noopReconciler) Reconcile(context.Context) error { return nil }

func TestRegisterJobs(t *testing.T) {
	j := job.NewProvisionJob(noopReconciler{}, 0)

	assert.NoError(t, NewCronManager("0 */10 * * * *", j).RegisterJobs())
	assert.Error(t, NewCronManager("*/10 * * * *", j).RegisterJobs(), "six fields required")
	assert.Error(t, NewCronManager("not a spec", j).RegisterJobs())
}

func TestInitCron(t *testing.T) {
	j := job.NewProvisionJob(noopReconciler{}, 0)

	err := InitCron(NewCronManager("every tuesday", j))
	assert.ErrorContains(t, err, "register provision job")

	mgr := NewCronManager("@every 1h", j)
	assert.NoError(t, InitCron(mgr))
	assert.Len(t, mgr.engine.Entries(), 1)
	mgr.Stop()
}
