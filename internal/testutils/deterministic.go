// Package testutils provides deterministic generators for SoftCode testing.
// These utilities ensure consistent test output while maintaining production
// format compatibility.
package testutils

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"softcode/pkg/softtypes"

	"github.com/google/uuid"
)

var (
	// Thread-safe counter for deterministic ID generation
	idCounter uint64
	idMutex   sync.Mutex

	// Thread-safe counter for deterministic timestamp generation
	timeCounter int64
	timeMutex   sync.Mutex
)

// testBaseTime anchors deterministic timestamps at 2025-01-01T00:00:00Z.
var testBaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// GenerateUUID generates a UUID that is deterministic in test mode but random
// in production. In test mode, returns UUIDs in the format
// 00000001-0000-4000-8000-000000000001, 00000002-..., etc.
func GenerateUUID(ctx softtypes.Context) string {
	if ctx.IsTestMode() {
		return getDeterministicUUID()
	}
	return uuid.New().String()
}

// GetCurrentTime returns the current time, deterministic in test mode but
// real in production. In test mode, returns incrementing time starting from
// 2025-01-01T00:00:00Z so ordering assertions stay stable.
func GetCurrentTime(ctx softtypes.Context) time.Time {
	if ctx.IsTestMode() {
		return getDeterministicTime()
	}
	return time.Now()
}

// NowMillis returns the current time as epoch milliseconds, matching the
// persisted conversation layout. Deterministic in test mode.
func NowMillis(ctx softtypes.Context) int64 {
	return GetCurrentTime(ctx).UnixMilli()
}

// GenerateConversationID allocates a conversation identifier in the
// timestamp+random composite format used by the persisted layout.
// In test mode the random suffix is replaced by a counter so IDs sort and
// compare deterministically.
func GenerateConversationID(ctx softtypes.Context) string {
	if ctx.IsTestMode() {
		idMutex.Lock()
		defer idMutex.Unlock()
		idCounter++
		return fmt.Sprintf("%d%06x", testBaseTime.UnixMilli(), idCounter)
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + suffix
}

// getDeterministicUUID generates a deterministic UUID maintaining UUID v4
// format.
func getDeterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	idCounter++

	// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx with y fixed at 8.
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

// getDeterministicTime generates incrementing deterministic timestamps for
// test mode. Each call returns a time one second later than the previous.
func getDeterministicTime() time.Time {
	timeMutex.Lock()
	defer timeMutex.Unlock()

	timeCounter++
	return testBaseTime.Add(time.Duration(timeCounter) * time.Second)
}

// ResetTestCounters resets the deterministic counters. This should only be
// called from test code to ensure consistent test runs.
func ResetTestCounters() {
	idMutex.Lock()
	timeMutex.Lock()
	defer idMutex.Unlock()
	defer timeMutex.Unlock()

	idCounter = 0
	timeCounter = 0
}
