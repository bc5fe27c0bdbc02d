//go:build integration

package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}
	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })

	port, err := rc.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	host, err := rc.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(t, ctx)

	c, err := New(ctx, Config{Driver: DriverRedis, RedisAddr: addr, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New(redis) error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.Get(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get(absent) error = %v, want ErrMiss", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get(k) = %q, %v", got, err)
	}
}
