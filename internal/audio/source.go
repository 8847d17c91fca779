// Package audio provides the capture-source abstraction used by the
// chunker: start/stop a device and pull raw float32 buffers from it as
// they arrive, independent of the native sample rate or channel count.
package audio

import (
	"context"
	"time"
)

// Role identifies which of the two capture streams a source backs.
type Role string

const (
	RoleSystem Role = "system" // system/loopback output
	RoleMic    Role = "mic"    // microphone input
)

// Source is the capability a capture backend must provide. Buffers
// returned by ReceiveNextBuffer are mono or interleaved float32 samples
// at the source's native rate and channel count; downmixing and
// resampling to the canonical format happen downstream in internal/dsp.
type Source interface {
	// Start opens the device and begins capture. ctx cancellation stops
	// capture asynchronously; callers should still call Stop.
	Start(ctx context.Context) error

	// Stop closes the device and releases it. Safe to call once after a
	// successful Start; a second call is a no-op.
	Stop() error

	// NativeSampleRate returns the device's sample rate in Hz, valid only
	// after Start succeeds.
	NativeSampleRate() int

	// NativeChannels returns the device's channel count, valid only after
	// Start succeeds.
	NativeChannels() int

	// ReceiveNextBuffer returns the next captured buffer, waiting up to
	// timeout. ok is false on timeout or after the source has stopped.
	ReceiveNextBuffer(timeout time.Duration) (samples []float32, ok bool)
}
