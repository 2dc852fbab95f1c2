package app

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// generateID produces a ULID so runs sort by creation time.
// Isolated here so the ID strategy can evolve independently.
func generateID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
