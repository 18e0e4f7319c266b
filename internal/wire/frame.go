// Package wire implements the length-prefixed frame protocol: a 4-byte
// little-endian signed length followed by that many payload bytes, with no
// handshake, version or checksum.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 4

// DefaultMaxFrameSize bounds what a Reader accepts unless told otherwise.
const DefaultMaxFrameSize = 64 << 20

var (
	// ErrConnectionLost wraps every write failure on the stream.
	ErrConnectionLost = errors.New("connection lost")
	// ErrFrameTooLarge means a length does not fit the prefix or the
	// reader's limit.
	ErrFrameTooLarge = errors.New("frame too large")
)

// PutHeader writes the length prefix for a payload of n bytes into b.
func PutHeader(b []byte, n int) error {
	if n < 0 || n > math.MaxInt32 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	binary.LittleEndian.PutUint32(b[:HeaderSize], uint32(int32(n)))
	return nil
}

// WriteFrame writes one frame to w. The prefix and the payload go out in a
// single vectored write where w supports it.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [HeaderSize]byte
	if err := PutHeader(hdr[:], len(payload)); err != nil {
		return err
	}
	bufs := net.Buffers{hdr[:], payload}
	if _, err := bufs.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	return nil
}

// Reader reads frames written by WriteFrame.
type Reader struct {
	r       io.Reader
	maxSize int
	hdr     [HeaderSize]byte
}

// NewReader returns a Reader rejecting frames above maxSize bytes;
// maxSize <= 0 selects DefaultMaxFrameSize.
func NewReader(r io.Reader, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Reader{r: r, maxSize: maxSize}
}

// ReadFrame returns the next payload. A stream that ends cleanly between
// frames yields io.EOF; one that ends inside a frame yields
// io.ErrUnexpectedEOF.
func (r *Reader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
		return nil, err
	}
	n := int32(binary.LittleEndian.Uint32(r.hdr[:]))
	if n < 0 {
		return nil, fmt.Errorf("negative frame length %d", n)
	}
	if int64(n) > int64(r.maxSize) {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrFrameTooLarge, n, r.maxSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
