package scheduler

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartRejectsInvalidSchedule(t *testing.T) {
	repo := repository.NewMemoryRepository(repository.NewMemoryStore(), nil)

	s := New(&config.AppConfig{UnreadReconcileCron: "not a cron"}, repo)
	assert.Error(t, s.Start())

	s = New(&config.AppConfig{UnreadReconcileCron: "*/15 * * * *"}, repo)
	assert.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
