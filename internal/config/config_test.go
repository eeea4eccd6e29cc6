package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MEET_DOMAIN", "")
	t.Setenv("STUN_SERVER", "")
	t.Setenv("MEET_LISTEN_ADDR", "")
	t.Setenv("MEET_INSECURE", "")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultDomain, cfg.Domain)
	assert.Equal(t, "wss://"+DefaultDomain+"/ws", cfg.WebSocketURL)
	assert.Equal(t, DefaultSTUN, cfg.STUNServer)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.False(t, cfg.Insecure)
}

func TestLoadFlagsBeatEnvironment(t *testing.T) {
	t.Setenv("MEET_DOMAIN", "env.example.com")
	t.Setenv("STUN_SERVER", "stun:env.example.com:3478")

	cfg, err := Load(Options{Domain: "flag.example.com"})
	require.NoError(t, err)

	assert.Equal(t, "flag.example.com", cfg.Domain)
	assert.Equal(t, "stun:env.example.com:3478", cfg.STUNServer)
}

func TestLoadInsecureFromEnvironment(t *testing.T) {
	t.Setenv("MEET_INSECURE", "1")

	cfg, err := Load(Options{Domain: "localhost:8080"})
	require.NoError(t, err)

	assert.True(t, cfg.Insecure)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.WebSocketURL)
}

func TestGetTURNServers(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Nil(t, cfg.GetTURNServers())

	cfg, err = Load(Options{
		TURNServer: "turn:turn.example.com",
		TURNUser:   "alice",
		TURNPass:   "secret",
	})
	require.NoError(t, err)

	servers := cfg.GetTURNServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "turn:turn.example.com:3478?transport=udp", servers[0])
	assert.Equal(t, "turn:turn.example.com:3478?transport=tcp", servers[1])

	user, pass := cfg.GetTURNCredentials()
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)
}

func TestGetRoomLink(t *testing.T) {
	cfg, err := Load(Options{Domain: "meet.example.com"})
	require.NoError(t, err)

	assert.Equal(t, "https://meet.example.com/room/brave-otter-lantern",
		cfg.GetRoomLink("brave-otter-lantern"))
}
