/*
locks.go - Keyed exclusive sections with bounded wait

PURPOSE:
  Every (product, location) pair has a single logical mutation point.
  Transfer, Adjustment and Validate acquire that pair's exclusive section
  before read-checking sufficiency and release only after the Move is
  appended and the view updated, making check-then-act atomic. A second
  instance serializes lifecycle transitions per operation id.

DEADLOCK AVOIDANCE:
  Multi-key acquisitions (a transfer touches two locations, a validation
  touches one pair per line) sort and de-duplicate keys before acquiring,
  so two contending callers always lock in the same order.

BOUNDED WAIT:
  No caller blocks indefinitely. Acquisition shares one deadline across
  all keys; on expiry the keys already held are released and a
  LockTimeoutError surfaces. Retrying is the caller's decision - a timeout
  usually means genuine contention worth re-presenting to the user.
*/
package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultLockWait bounds how long a caller waits for a contended key.
const DefaultLockWait = 3 * time.Second

// KeyedLocks provides per-key exclusive sections with a bounded wait.
type KeyedLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{} // closed on release
	Wait time.Duration
}

func NewKeyedLocks(wait time.Duration) *KeyedLocks {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &KeyedLocks{held: make(map[string]chan struct{}), Wait: wait}
}

// StockKey names the mutation point for one (product, location) pair.
func StockKey(p ProductID, l LocationID) string {
	return string(p) + "@" + string(l)
}

// OperationKey names the serialization point for one operation document.
func OperationKey(id OperationID) string {
	return "op:" + string(id)
}

// Acquire takes every key (sorted, de-duplicated) and returns a release
// function. On timeout or context cancellation, keys already taken are
// released and a LockTimeoutError (or ctx error) is returned.
func (kl *KeyedLocks) Acquire(ctx context.Context, keys ...string) (func(), error) {
	ordered := dedupeSorted(keys)

	deadline := time.NewTimer(kl.Wait)
	defer deadline.Stop()

	taken := make([]string, 0, len(ordered))
	releaseTaken := func() {
		for _, k := range taken {
			kl.release(k)
		}
	}

	for _, k := range ordered {
		for {
			kl.mu.Lock()
			holder, busy := kl.held[k]
			if !busy {
				kl.held[k] = make(chan struct{})
				kl.mu.Unlock()
				taken = append(taken, k)
				break
			}
			kl.mu.Unlock()

			select {
			case <-holder:
				// holder released; race for the key again
			case <-deadline.C:
				releaseTaken()
				return nil, &LockTimeoutError{Key: k, Wait: kl.Wait}
			case <-ctx.Done():
				releaseTaken()
				return nil, ctx.Err()
			}
		}
	}

	var once sync.Once
	return func() { once.Do(releaseTaken) }, nil
}

func (kl *KeyedLocks) release(key string) {
	kl.mu.Lock()
	ch := kl.held[key]
	delete(kl.held, key)
	kl.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func dedupeSorted(keys []string) []string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	out := sorted[:0]
	for i, k := range sorted {
		if i == 0 || sorted[i-1] != k {
			out = append(out, k)
		}
	}
	return out
}
