package source

import (
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/rhasspy/oww-go/internal/pipeline"
)

// micQueueCap bounds the number of pending capture frames; once full,
// new frames are dropped rather than blocking the audio callback
// (grounded on internal/wakeword/detector.go's audioQueueCap pattern).
const micQueueCap = 32

// ErrMicrophoneClosed is returned by Read once Close has been called.
var ErrMicrophoneClosed = errors.New("source: microphone closed")

// Microphone captures live 16 kHz mono 16-bit PCM via miniaudio
// (malgo), the same binding and device configuration the teacher uses
// in internal/wakeword/detector.go.
type Microphone struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	frames chan []int16
	drops  atomic.Int64
	pend   []int16
}

// OpenMicrophone starts capturing from the system's default input
// device at the pipeline's fixed sample rate.
func OpenMicrophone() (*Microphone, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, err
	}

	m := &Microphone{
		ctx:    ctx,
		frames: make(chan []int16, micQueueCap),
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.SampleRate = pipeline.SampleRate
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = 1
	devCfg.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_ []byte, raw []byte, _ uint32) {
			if len(raw) == 0 {
				return
			}
			n := len(raw) / 2
			pcm := make([]int16, n)
			for i := 0; i < n; i++ {
				pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			}
			select {
			case m.frames <- pcm:
			default:
				m.drops.Add(1)
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, devCfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, err
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, err
	}
	return m, nil
}

// Read fills buf from the capture queue, blocking until enough samples
// have arrived or the microphone is closed. Unlike file-backed sources,
// a microphone has no natural EOF; Close is the only way Read returns
// io.EOF.
func (m *Microphone) Read(buf []int16) (int, error) {
	n := 0
	for n < len(buf) {
		if len(m.pend) == 0 {
			frame, ok := <-m.frames
			if !ok {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			m.pend = frame
		}
		c := copy(buf[n:], m.pend)
		m.pend = m.pend[c:]
		n += c
	}
	return n, nil
}

// Dropped returns the number of capture frames discarded because the
// internal queue was full (i.e. the pipeline fell behind real time).
func (m *Microphone) Dropped() int64 {
	return m.drops.Load()
}

// Close stops capture and releases the device and context.
func (m *Microphone) Close() error {
	m.device.Uninit()
	err := m.ctx.Uninit()
	m.ctx.Free()
	close(m.frames)
	return err
}
