package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := Zap()
	Set(zap.New(core))
	defer Set(prev)

	Infow("clustered profile", "profile", "NL_Demand", "clusters", 672)
	Warnf("skipping %d rows", 3)
	Named("worker").Debugw("job done")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "clustered profile", entries[0].Message)
		assert.Equal(t, "NL_Demand", entries[0].ContextMap()["profile"])
		assert.Equal(t, "skipping 3 rows", entries[1].Message)
		assert.Equal(t, "worker", entries[2].LoggerName)
	}
}

func TestNopBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Infof("nothing configured yet")
		Sync()
	})
}
