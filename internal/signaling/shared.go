package signaling

import "sync"

var (
	sharedMu sync.Mutex
	shared   *Channel
)

// Shared returns the process-wide signaling channel, creating it on first
// use. One channel serves every room session in the process so that switching
// rooms does not pay a fresh transport handshake.
func Shared(serverURL string) *Channel {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil || shared.IsClosed() {
		shared = NewChannel(serverURL)
	}
	return shared
}

// Shutdown disconnects the shared channel, if any. Called on process exit.
func Shutdown() {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		shared.Disconnect()
		shared = nil
	}
}
