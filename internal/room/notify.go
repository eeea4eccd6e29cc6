package room

// Notifier is the audible-alert collaborator. The core only decides when a
// sound is due; producing it is a rendering concern.
type Notifier interface {
	// Admitted fires when this client's join request is approved.
	Admitted()

	// JoinRequested fires when a new join request lands in the host queue.
	JoinRequested(userName string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Admitted() {}

func (NopNotifier) JoinRequested(string) {}
