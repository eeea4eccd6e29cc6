package ui

import "fmt"

// BellNotifier satisfies room.Notifier with the terminal bell. The web
// frontend plays real notification sounds; a TTY gets what a TTY has.
type BellNotifier struct{}

func (BellNotifier) Admitted() {
	fmt.Print("\a")
}

func (BellNotifier) JoinRequested(string) {
	fmt.Print("\a")
}
