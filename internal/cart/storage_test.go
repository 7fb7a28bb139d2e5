package cart_test

import (
	"context"
	"github.com/nikolayk812/cartkeeper/internal/port"
	"sync"
)

// fakeStorage records every Set and can be told to fail.
type fakeStorage struct {
	mu     sync.Mutex
	values map[string]string
	sets   []string
	gets   int
	getErr error
	setErr error

	// getGate, when set, blocks Get until it is closed.
	getGate chan struct{}
	// getErrOnce fails the next Get only.
	getErrOnce error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{values: make(map[string]string)}
}

func (f *fakeStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	f.gets++
	gate := f.getGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.getErrOnce; err != nil {
		f.getErrOnce = nil
		return "", false, err
	}
	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, value)
	f.values[key] = value
	return nil
}

func (f *fakeStorage) put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
}

func (f *fakeStorage) getCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.gets
}

func (f *fakeStorage) setCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.sets...)
}

func (f *fakeStorage) failSet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setErr = err
}

var _ port.SnapshotStorage = (*fakeStorage)(nil)
