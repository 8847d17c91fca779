package audio

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"

	"github.com/ghardin1314/scribe/internal/errors"
)

// ringCapacityBytes bounds how much raw capture audio can sit unread
// before the capture callback starts dropping it rather than blocking.
const ringCapacityBytes = 1 << 20 // 1MiB, ~2.7s of stereo float32 at 48kHz

const ringPollInterval = time.Millisecond

// MalgoSource implements Source using malgo for cross-platform device
// access. System-output capture uses malgo's loopback device type; mic
// capture uses a regular capture device. Both deliver interleaved
// float32 samples.
type MalgoSource struct {
	role       Role
	deviceName string

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	cancel  context.CancelFunc
	running atomic.Bool

	nativeRate     uint32
	nativeChannels uint32

	// buffers is a bounded single-producer (capture callback),
	// single-consumer (ReceiveNextBuffer) byte queue. The callback writes
	// with TryWrite so a full buffer drops audio rather than stalling the
	// native capture thread.
	buffers *ringbuffer.RingBuffer

	// scratch backs ReceiveNextBuffer's drain reads; reused across polls
	// since chunker.Run calls it in a tight loop per source.
	scratch []byte
}

// NewMalgoSource creates a source for the given role. deviceName selects a
// specific device by substring match; empty selects the OS default.
func NewMalgoSource(role Role, deviceName string) *MalgoSource {
	return &MalgoSource{
		role:       role,
		deviceName: deviceName,
		buffers:    ringbuffer.New(ringCapacityBytes),
		scratch:    make([]byte, ringCapacityBytes),
	}
}

func (s *MalgoSource) deviceType() malgo.DeviceType {
	if s.role == RoleSystem {
		return malgo.Loopback
	}
	return malgo.Capture
}

// Start opens the device and begins capture.
func (s *MalgoSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return errors.New(nil).Component("audio").Category(errors.CategoryDevice).
			Context("role", string(s.role)).Context("error", "already running").Build()
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(err).Component("audio").Category(errors.CategoryDevice).
			Context("role", string(s.role)).Context("operation", "init_context").Build()
	}

	enumType := malgo.Capture
	if s.role == RoleSystem {
		enumType = malgo.Playback
	}
	devices, _ := malgoCtx.Devices(enumType)

	// Channels is requested explicitly rather than left at 0: miniaudio
	// converts to whatever layout we ask for, and unlike the sample rate
	// there is no reliable way to read back what "native" resolved to.
	// System loopback devices are stereo; mics are requested mono, which
	// is what the downmix and transcription paths assume for that role.
	channels := uint32(1)
	if s.role == RoleSystem {
		channels = 2
	}

	deviceConfig := malgo.DefaultDeviceConfig(s.deviceType())
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = channels
	deviceConfig.SampleRate = 0 // let the device report its native rate

	if s.deviceName != "" {
		needle := strings.ToLower(s.deviceName)
		for i := range devices {
			if strings.Contains(strings.ToLower(devices[i].Name()), needle) {
				deviceConfig.Capture.DeviceID = devices[i].ID.Pointer()
				break
			}
		}
	}

	captureCtx, cancel := context.WithCancel(ctx)

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: s.onData,
		Stop: func() {},
	})
	if err != nil {
		cancel()
		_ = malgoCtx.Uninit()
		return errors.New(err).Component("audio").Category(errors.CategoryDevice).
			Context("role", string(s.role)).Context("operation", "init_device").Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		cancel()
		_ = malgoCtx.Uninit()
		return errors.New(err).Component("audio").Category(errors.CategoryDevice).
			Context("role", string(s.role)).Context("operation", "start_device").Build()
	}

	s.ctx = malgoCtx
	s.device = device
	s.cancel = cancel
	s.nativeRate = device.SampleRate()
	s.nativeChannels = channels
	s.running.Store(true)

	go func() {
		<-captureCtx.Done()
		_ = s.Stop()
	}()

	return nil
}

// Stop closes the device. Safe to call once; a second call is a no-op.
func (s *MalgoSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		_ = s.ctx.Uninit()
		s.ctx = nil
	}

	s.buffers.CloseWriter()
	return nil
}

func (s *MalgoSource) NativeSampleRate() int { return int(s.nativeRate) }
func (s *MalgoSource) NativeChannels() int   { return int(s.nativeChannels) }

// ReceiveNextBuffer waits up to timeout for captured audio to appear in
// the ring buffer, polling it since TryRead is non-blocking.
func (s *MalgoSource) ReceiveNextBuffer(timeout time.Duration) ([]float32, bool) {
	deadline := time.Now().Add(timeout)

	for {
		n, _ := s.buffers.TryRead(s.scratch)
		// scratch is sized to the full ring capacity so a read drains
		// everything queued, which keeps it 4-byte aligned since every
		// write is itself a whole number of float32 samples.
		usable := n - n%4
		if usable > 0 {
			samples := make([]float32, usable/4)
			for i := 0; i < usable; i += 4 {
				samples[i/4] = bytesToFloat32(s.scratch[i], s.scratch[i+1], s.scratch[i+2], s.scratch[i+3])
			}
			return samples, true
		}
		if time.Now().After(deadline) {
			return nil, false
		}
		time.Sleep(ringPollInterval)
	}
}

func (s *MalgoSource) onData(_, input []byte, frameCount uint32) {
	_, _ = s.buffers.TryWrite(input)
}

func bytesToFloat32(b0, b1, b2, b3 byte) float32 {
	bits := uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
	return math.Float32frombits(bits)
}
