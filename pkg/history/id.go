package history

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a sortable unique id for a record.
func NewID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
