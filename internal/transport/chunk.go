package transport

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// ChunkHeaderSize prefixes every chunk: seq u32 | index u16 | count u16.
	ChunkHeaderSize = 8
	// DefaultChunkSize keeps chunks under the SCTP message size every
	// WebRTC stack accepts.
	DefaultChunkSize = 16 * 1024
	maxChunks        = 1<<16 - 1
)

// ErrBadChunk is returned for chunks whose header is inconsistent.
var ErrBadChunk = errors.New("bad chunk")

// Split cuts msg into chunks of at most chunkSize payload bytes tagged with seq.
func Split(seq uint32, msg []byte, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	count := (len(msg) + chunkSize - 1) / chunkSize
	if count == 0 {
		count = 1
	}
	if count > maxChunks {
		return nil, errors.Errorf("message of %d bytes needs %d chunks, limit %d", len(msg), count, maxChunks)
	}

	chunks := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(msg))
		c := make([]byte, ChunkHeaderSize+end-start)
		binary.BigEndian.PutUint32(c[0:], seq)
		binary.BigEndian.PutUint16(c[4:], uint16(i))
		binary.BigEndian.PutUint16(c[6:], uint16(count))
		copy(c[ChunkHeaderSize:], msg[start:end])
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Assembler rebuilds messages from chunks that may arrive out of order or not
// at all. A chunk of a newer message abandons the one in progress; chunks of
// older messages are ignored.
type Assembler struct {
	seq     uint32 // message in progress, or the lowest one still accepted
	started bool
	parts   [][]byte
	got     int
	dropped uint64
}

// Add consumes one chunk and returns the message it completes, if any.
func (a *Assembler) Add(chunk []byte) ([]byte, error) {
	if len(chunk) < ChunkHeaderSize {
		return nil, errors.Wrap(ErrBadChunk, "short header")
	}
	seq := binary.BigEndian.Uint32(chunk[0:])
	index := int(binary.BigEndian.Uint16(chunk[4:]))
	count := int(binary.BigEndian.Uint16(chunk[6:]))
	if count == 0 || index >= count {
		return nil, errors.Wrapf(ErrBadChunk, "index %d of %d", index, count)
	}

	if a.started {
		d := int32(seq - a.seq)
		if d < 0 {
			return nil, nil
		}
		if d > 0 && a.parts != nil {
			a.dropped++
			a.parts = nil
		}
	}
	a.started = true

	if a.parts == nil {
		a.seq = seq
		a.parts = make([][]byte, count)
		a.got = 0
	} else if count != len(a.parts) {
		return nil, errors.Wrapf(ErrBadChunk, "seq %d count changed from %d to %d", seq, len(a.parts), count)
	}

	if a.parts[index] != nil {
		return nil, nil
	}
	a.parts[index] = chunk[ChunkHeaderSize:]
	a.got++
	if a.got < len(a.parts) {
		return nil, nil
	}

	size := 0
	for _, p := range a.parts {
		size += len(p)
	}
	msg := make([]byte, 0, size)
	for _, p := range a.parts {
		msg = append(msg, p...)
	}
	a.parts = nil
	a.seq = seq + 1
	return msg, nil
}

// Dropped returns how many partially received messages were abandoned.
func (a *Assembler) Dropped() uint64 {
	return a.dropped
}
