// Package id issues run identifiers for evaluated decisions.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// monotonic so runs issued within one millisecond still sort in order
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a run id stamped with the current time.
func New() string {
	return At(time.Now())
}

// At returns a run id stamped with t. Ids sort lexicographically by t.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// only when t is before the epoch or past year 10889
		panic(err)
	}
	return v.String()
}

// Time recovers the timestamp a run id was issued with.
func Time(runID string) (time.Time, error) {
	v, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run id %q: %w", runID, err)
	}
	return ulid.Time(v.Time()).UTC(), nil
}

// Valid reports whether runID is a well-formed run id.
func Valid(runID string) bool {
	_, err := ulid.ParseStrict(runID)
	return err == nil
}
