package utils

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// Word pools for memorable room IDs.
var (
	adjectives = []string{
		"amber", "brave", "calm", "dusty", "eager", "fuzzy",
		"gentle", "happy", "icy", "jolly", "lucky", "mellow",
	}
	animals = []string{
		"badger", "crane", "dolphin", "falcon", "gecko", "heron",
		"koala", "lemur", "otter", "panda", "raven", "walrus",
	}
	things = []string{
		"anchor", "beacon", "canyon", "ember", "harbor", "lantern",
		"meadow", "pebble", "quartz", "ripple", "summit", "willow",
	}
)

// GenerateRoomID creates a random, memorable room ID.
// Format: adjective-animal-thing (e.g., "mellow-otter-lantern").
func GenerateRoomID() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[randomIndex(len(adjectives))],
		animals[randomIndex(len(animals))],
		things[randomIndex(len(things))],
	)
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("Failed to generate random index:", err)
	}
	return int(n.Int64())
}
