package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "POSTGRES_URL", "DATABASE_URL", "ACTION_TIMEOUT", "RATE_LIMIT", "MATCH_POLICY"} {
		t.Setenv(k, "")
	}

	c := Load()
	assert.Equal(t, StorePostgres, c.StoreDriver)
	assert.Equal(t, 10*time.Second, c.ActionTimeout)
	assert.Equal(t, 100, c.RateLimit)
	assert.Equal(t, "bucket", c.MatchPolicy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreMemory)
	t.Setenv("DATABASE_URL", "postgres://legacy")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("QUEUE_INTERVAL", "250ms")
	t.Setenv("RATE_LIMIT", "nope")

	c := Load()
	assert.Equal(t, StoreMemory, c.StoreDriver)
	assert.Equal(t, "postgres://legacy", c.PostgresURL)
	assert.Equal(t, 250*time.Millisecond, c.QueueInterval)
	assert.Equal(t, 100, c.RateLimit)
}
