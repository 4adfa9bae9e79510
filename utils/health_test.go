package utils

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestHealthMonitorReportsRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := NewHealthMonitor(client, nil)
	status := h.Check(context.Background())
	assert.True(t, status.Redis)
	assert.True(t, status.Mongo)
	assert.Equal(t, status, h.Status())

	mr.Close()
	status = h.Check(context.Background())
	assert.False(t, status.Redis)
}
