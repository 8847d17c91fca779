package audio

import (
	"context"
	"fmt"
)

// Manager owns the zero, one, or two active capture sources selected by
// configuration and starts/stops them together.
type Manager struct {
	System Source
	Mic    Source
}

// NewManager constructs sources for the requested roles. Either role may
// be nil when its capture flag is disabled.
func NewManager(captureSystem, captureMic bool, systemDevice, micDevice string) *Manager {
	m := &Manager{}
	if captureSystem {
		m.System = NewMalgoSource(RoleSystem, systemDevice)
	}
	if captureMic {
		m.Mic = NewMalgoSource(RoleMic, micDevice)
	}
	return m
}

// Start opens every configured source, rolling back any already-opened
// source if a later one fails.
func (m *Manager) Start(ctx context.Context) error {
	started := make([]Source, 0, 2)
	for _, src := range []Source{m.System, m.Mic} {
		if src == nil {
			continue
		}
		if err := src.Start(ctx); err != nil {
			for _, s := range started {
				_ = s.Stop()
			}
			return fmt.Errorf("starting capture source: %w", err)
		}
		started = append(started, src)
	}
	return nil
}

// Stop closes every configured source, not stopping early on an error,
// and returns the first error encountered.
func (m *Manager) Stop() error {
	var firstErr error
	for _, src := range []Source{m.System, m.Mic} {
		if src == nil {
			continue
		}
		if err := src.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
