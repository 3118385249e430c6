//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	idem "github.com/pdftoolpro/tracking-api/internal/infrastructure/db/redis"
)

var redisAddr string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		panic(err)
	}
	redisAddr = fmt.Sprintf("%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestIdempotencyStore_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	client, err := idem.Connect(ctx, idem.Config{Addr: redisAddr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := idem.NewIdempotencyStore(client, time.Minute)

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Claim(ctx, "tool-usage:pdf-merge:abc")
			require.NoError(t, err)
			if ok {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), firsts.Load())

	require.NoError(t, store.Release(ctx, "tool-usage:pdf-merge:abc"))
	ok, err := store.Claim(ctx, "tool-usage:pdf-merge:abc")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := idem.Connect(context.Background(), idem.Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}
