package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "version: dev")
	assert.Nil(t, appHandle, "version must not build the application")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	t.Setenv("VITE_SOLANA_RPC_URL", "https://rpc.example.com/?api-key=YOUR_API_KEY_HERE")
	t.Setenv("VITE_PUMP_FUN_WS_URL", "wss://feed.example.com/api/data")
	t.Setenv("VITE_PUMP_FUN_PROGRAM_ID", "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	rootCmd.SetArgs([]string{"run"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VITE_SOLANA_RPC_URL")
	assert.Nil(t, appHandle)
}
