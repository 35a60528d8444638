package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientNamesConnection(t *testing.T) {
	server := miniredis.RunT(t)

	tests := []struct {
		name     string
		url      string
		wantName string
	}{
		{name: "default name", url: "redis://" + server.Addr(), wantName: "walletledger"},
		{name: "name from url", url: "redis://" + server.Addr() + "/0?client_name=ledger-cli", wantName: "ledger-cli"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.url)
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })

			assert.Equal(t, tt.wantName, client.Options().ClientName)
		})
	}
}

func TestNewClientErrors(t *testing.T) {
	stopped := miniredis.RunT(t)
	stoppedURL := "redis://" + stopped.Addr()
	stopped.Close()

	tests := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{name: "invalid url", url: "://bad-url", wantMsg: "parse redis URL"},
		{name: "wrong scheme", url: "http://localhost:6379", wantMsg: "parse redis URL"},
		{name: "server down", url: stoppedURL, wantMsg: "ping redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.url)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewClientHonoursCancelledContext(t *testing.T) {
	server := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(ctx, "redis://"+server.Addr())
	assert.ErrorIs(t, err, context.Canceled)
}
