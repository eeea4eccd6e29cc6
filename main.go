package main

import (
	"github.com/Manish-keer19/meeting-app/cmd"
	"github.com/Manish-keer19/meeting-app/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
