package player

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

const (
	bytesPerFrame = 4 // s16le, 2 channels

	// ~2.7s of 48kHz stereo read ahead of the speaker.
	readChunkSize   = 8 * 1024
	readAheadChunks = 64
)

// pcmStreamer adapts a raw s16le stereo byte stream to beep.Streamer.
//
// A reader goroutine drains the pipe into a bounded channel so Stream,
// which runs on the speaker goroutine with the speaker locked, never waits
// on the pipe. When the read-ahead runs dry Stream plays silence instead.
// close must be called with the speaker locked.
type pcmStreamer struct {
	chunks  <-chan []byte
	pending []byte
	eof     bool
	closed  bool

	quit     chan struct{}
	quitOnce sync.Once

	errMu sync.Mutex
	err   error
}

func newPCMStreamer(r io.Reader) *pcmStreamer {
	chunks := make(chan []byte, readAheadChunks)
	p := &pcmStreamer{chunks: chunks, quit: make(chan struct{})}
	go p.readAhead(r, chunks)
	return p
}

func (p *pcmStreamer) readAhead(r io.Reader, out chan<- []byte) {
	defer close(out)
	for {
		buf := make([]byte, readChunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case out <- buf[:n]:
			case <-p.quit:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.setErr(err)
			}
			return
		}
	}
}

func (p *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	if p.closed {
		return 0, false
	}
	for i := range samples {
		if !p.fill() {
			if p.eof {
				p.closed = true
				return i, i > 0
			}
			clear(samples[i:])
			return len(samples), true
		}
		left := int16(binary.LittleEndian.Uint16(p.pending[0:2]))
		right := int16(binary.LittleEndian.Uint16(p.pending[2:4]))
		p.pending = p.pending[bytesPerFrame:]
		samples[i][0] = float64(left) / 32768
		samples[i][1] = float64(right) / 32768
	}
	return len(samples), true
}

// fill makes a whole frame pending without blocking. A trailing partial
// frame at end of stream is dropped.
func (p *pcmStreamer) fill() bool {
	for len(p.pending) < bytesPerFrame {
		select {
		case c, ok := <-p.chunks:
			if !ok {
				p.eof = true
				return false
			}
			if len(p.pending) == 0 {
				p.pending = c
			} else {
				p.pending = append(p.pending, c...)
			}
		default:
			return false
		}
	}
	return true
}

func (p *pcmStreamer) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

func (p *pcmStreamer) setErr(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.err = err
}

func (p *pcmStreamer) close() {
	p.closed = true
	p.quitOnce.Do(func() { close(p.quit) })
}
