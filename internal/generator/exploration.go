package generator

import (
	"hash/fnv"
	"time"

	"github.com/google/uuid"
)

// ExplorationSeed derives a deterministic per-user-per-day seed so the
// exploration perturbation is stable within a day and changes the next.
func ExplorationSeed(userID uuid.UUID, day time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(userID.String()))
	h.Write([]byte(day.Format("2006-01-02")))
	return h.Sum64()
}
