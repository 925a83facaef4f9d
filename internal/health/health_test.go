package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckBasic(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	assert.Equal(t, "healthy", NewHealthChecker(nil, nil).CheckBasic().Status)
	assert.Equal(t, "healthy", NewHealthChecker(ok, nil).CheckBasic().Status)

	status := NewHealthChecker(down, nil).CheckBasic()
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy", status.Database.Status)
}

func TestCheckDetailedRedis(t *testing.T) {
	down := PingFunc(func(context.Context) error { return errors.New("redis down") })

	status := NewHealthChecker(nil, nil).CheckDetailed()
	assert.Equal(t, "disabled", status.Redis.Status)

	status = NewHealthChecker(nil, down).CheckDetailed()
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "unhealthy", status.Redis.Status)
}
