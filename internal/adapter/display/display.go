// Package display holds the local frame sinks. Each sink follows the panel
// lifecycle the pipeline drives for every frame: Init, Clear, Render, Sleep.
package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// Sink is the display lifecycle shared by every output.
type Sink interface {
	Init(ctx context.Context) error
	Clear(ctx context.Context) error
	Render(ctx context.Context, frame *image.Paletted) error
	Sleep(ctx context.Context) error
}

// EncodePNG encodes a frame as an indexed PNG.
func EncodePNG(frame *image.Paletted) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// PNGFile writes each rendered frame to a file, replacing it atomically so
// readers never observe a partial image.
type PNGFile struct {
	path string
}

// NewPNGFile returns a sink writing to path.
func NewPNGFile(path string) *PNGFile {
	return &PNGFile{path: path}
}

// Init checks that the target directory exists.
func (p *PNGFile) Init(_ context.Context) error {
	dir := filepath.Dir(p.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("png sink: %s is not a directory", dir)
	}
	return nil
}

func (p *PNGFile) Clear(_ context.Context) error { return nil }

func (p *PNGFile) Render(_ context.Context, frame *image.Paletted) error {
	data, err := EncodePNG(frame)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("png sink: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	return nil
}

func (p *PNGFile) Sleep(_ context.Context) error { return nil }

// Memory keeps the most recent frame for the HTTP preview and for tests.
// It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	frame  *image.Paletted
	frames int
	ops    []string
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Init(_ context.Context) error  { m.record("init"); return nil }
func (m *Memory) Clear(_ context.Context) error { m.record("clear"); return nil }
func (m *Memory) Sleep(_ context.Context) error { m.record("sleep"); return nil }

func (m *Memory) Render(_ context.Context, frame *image.Paletted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendOp("render")
	m.frame = frame
	m.frames++
	return nil
}

// Latest returns the last rendered frame, or false before the first one.
// The frame must not be modified.
func (m *Memory) Latest() (*image.Paletted, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame, m.frame != nil
}

// Frames returns how many frames have been rendered.
func (m *Memory) Frames() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// Ops returns the most recent lifecycle calls, oldest first.
func (m *Memory) Ops() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.ops...)
}

func (m *Memory) record(op string) {
	m.mu.Lock()
	m.appendOp(op)
	m.mu.Unlock()
}

// maxOps bounds the op history kept by a long-running daemon.
const maxOps = 64

func (m *Memory) appendOp(op string) {
	if len(m.ops) >= maxOps {
		m.ops = append(m.ops[:0], m.ops[len(m.ops)-maxOps/2:]...)
	}
	m.ops = append(m.ops, op)
}

// Multi fans each lifecycle call out to every sink in order. All sinks are
// called even when one fails; the errors are joined.
type Multi []Sink

func (m Multi) Init(ctx context.Context) error {
	return m.each(func(s Sink) error { return s.Init(ctx) })
}

func (m Multi) Clear(ctx context.Context) error {
	return m.each(func(s Sink) error { return s.Clear(ctx) })
}

func (m Multi) Render(ctx context.Context, frame *image.Paletted) error {
	return m.each(func(s Sink) error { return s.Render(ctx, frame) })
}

func (m Multi) Sleep(ctx context.Context) error {
	return m.each(func(s Sink) error { return s.Sleep(ctx) })
}

func (m Multi) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
