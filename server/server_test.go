package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/seder-i18n/seder/server"
)

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, handler))

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	assert.NoError(t, g.Wait())
}

func TestServerStartTwice(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Start(ctx, http.NotFoundHandler()) }()
	<-srv.Ready()

	err := srv.Start(ctx, http.NotFoundHandler())
	assert.True(t, errors.Is(err, server.ErrServerAlreadyRunning))
	assert.NoError(t, srv.Stop())
}

func TestServerListenError(t *testing.T) {
	t.Parallel()

	srv := server.New("256.0.0.1:bad")
	err := srv.Start(context.Background(), http.NotFoundHandler())
	assert.ErrorIs(t, err, server.ErrListen)
}

func TestStopWhenNotRunning(t *testing.T) {
	t.Parallel()
	assert.NoError(t, server.New(":0").Stop())
}
