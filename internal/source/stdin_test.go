package source

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func encode(samples ...int16) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestStdinReadFullFrames(t *testing.T) {
	raw := encode(1, 2, 3, 4)
	s := NewStdin(bytes.NewReader(raw))

	buf := make([]int16, 4)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 || buf[0] != 1 || buf[3] != 4 {
		t.Fatalf("got n=%d buf=%v", n, buf)
	}
}

func TestStdinShortFinalReadThenEOF(t *testing.T) {
	raw := encode(1, 2)
	s := NewStdin(bytes.NewReader(raw))

	buf := make([]int16, 4)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("short read should not error: %v", err)
	}
	if n != 2 {
		t.Fatalf("got n=%d, want 2", n)
	}

	n, err = s.Read(buf)
	if n != 0 || err != io.EOF {
		t.Fatalf("got n=%d err=%v, want 0, io.EOF", n, err)
	}
}
