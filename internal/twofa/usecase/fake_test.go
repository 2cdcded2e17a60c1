package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/lock"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

// fakeDB mirrors the Postgres repository: consume is a compare-and-set under
// one mutex, replace swaps the batch in one step.
type fakeDB struct {
	mu      sync.Mutex
	secrets map[string]entity.IdentitySecret
	codes   map[string][]entity.RecoveryCode
	err     error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		secrets: map[string]entity.IdentitySecret{},
		codes:   map[string][]entity.RecoveryCode{},
	}
}

func (f *fakeDB) failWith(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeDB) GetIdentitySecret(_ context.Context, id string) (*entity.IdentitySecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.secrets[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &s, nil
}

func (f *fakeDB) CountUnusedRecoveryCodes(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.secrets[id]; !ok {
		return 0, goerror.ErrNotFound
	}
	n := 0
	for _, c := range f.codes[id] {
		if !c.Used {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) CreateIdentity(_ context.Context, s entity.IdentitySecret, codes []entity.RecoveryCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.secrets[s.IdentityID]; ok {
		return goerror.ErrConflict
	}
	f.secrets[s.IdentityID] = s
	f.codes[s.IdentityID] = append([]entity.RecoveryCode(nil), codes...)
	return nil
}

func (f *fakeDB) CreateRecoveryCodes(_ context.Context, id string, codes []entity.RecoveryCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.secrets[id]; !ok {
		return goerror.ErrNotFound
	}
	f.codes[id] = append(f.codes[id], codes...)
	return nil
}

func (f *fakeDB) ReplaceRecoveryCodes(_ context.Context, id string, codes []entity.RecoveryCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.secrets[id]; !ok {
		return goerror.ErrNotFound
	}
	f.codes[id] = append([]entity.RecoveryCode(nil), codes...)
	return nil
}

func (f *fakeDB) ConsumeRecoveryCode(_ context.Context, id, digest string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for i, c := range f.codes[id] {
		if c.Code == digest && !c.Used {
			now := time.Now()
			f.codes[id][i].Used = true
			f.codes[id][i].UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) DeleteIdentity(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.secrets[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.secrets, id)
	delete(f.codes, id)
	return nil
}

func (f *fakeDB) storedCodes(id string) []entity.RecoveryCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.RecoveryCode(nil), f.codes[id]...)
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (f *fakeMessaging) record(ev any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeMessaging) PublishIdentityProvisioned(_ context.Context, ev IdentityProvisionedEvent) error {
	return f.record(ev)
}

func (f *fakeMessaging) PublishIdentityDeprovisioned(_ context.Context, ev IdentityDeprovisionedEvent) error {
	return f.record(ev)
}

func (f *fakeMessaging) PublishRecoveryCodeConsumed(_ context.Context, ev RecoveryCodeConsumedEvent) error {
	return f.record(ev)
}

func (f *fakeMessaging) PublishRecoveryCodesRegenerated(_ context.Context, ev RecoveryCodesRegeneratedEvent) error {
	return f.record(ev)
}

func (f *fakeMessaging) published() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.events...)
}

// fakeLocker is a try-lock keyed by name, like the Redis locker.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
	// releaseErr is reported after fn has run, like a failed Redis release.
	releaseErr error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) hold(key string) {
	f.mu.Lock()
	f.held[key] = true
	f.mu.Unlock()
}

func (f *fakeLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return f.err
	}
	if f.held[key] {
		f.mu.Unlock()
		return lock.ErrNotAcquired
	}
	f.held[key] = true
	f.mu.Unlock()

	err := fn(ctx)

	f.mu.Lock()
	delete(f.held, key)
	releaseErr := f.releaseErr
	f.mu.Unlock()
	if releaseErr != nil {
		return errors.Join(err, fmt.Errorf("%w: %w", lock.ErrRelease, releaseErr))
	}
	return err
}

var errStoreDown = errors.New("store down")
