package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock guards against two daemons polling the same bot token. A
// second getUpdates consumer makes Telegram split updates between the two
// processes, so the lock failure is fatal rather than advisory.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

func AcquireInstanceLock(path string) (*InstanceLock, error) {
	if path == "" {
		return nil, fmt.Errorf("instance lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("another instance is already running (lock held: %s)", path)
	}

	return &InstanceLock{path: path, lock: fl}, nil
}

func (l *InstanceLock) Held() bool {
	return l != nil && l.lock != nil && l.lock.Locked()
}

func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
