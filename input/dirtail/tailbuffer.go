// Package dirtail provides tailing of one rotating log directory: the partial-line
// buffer, the per-directory tailer state machine and the startup replay of recently
// rotated files.
package dirtail

import (
	"bytes"
	"strings"
)

// TailBuffer accumulates partial line fragments across reads from the active file and
// yields only complete lines.
//
// A line is never yielded before its terminator has been observed; an unterminated
// trailing fragment stays buffered until more bytes arrive. Owned by a single tailer,
// not safe for concurrent use.
type TailBuffer struct {
	pending      []byte
	maxLineBytes int
	discarding   bool
	onDiscard    func(droppedBytes int)
}

// NewTailBuffer creates a TailBuffer limiting unterminated fragments to maxLineBytes
//
// onDiscard, if not nil, is called with the number of bytes dropped whenever an
// oversized fragment is discarded.
func NewTailBuffer(maxLineBytes int, onDiscard func(droppedBytes int)) *TailBuffer {
	return &TailBuffer{
		pending:      nil,
		maxLineBytes: maxLineBytes,
		discarding:   false,
		onDiscard:    onDiscard,
	}
}

// Feed appends newly read bytes and returns the complete lines now available, with
// terminators stripped
//
// Everything up to and including the last line terminator is flushed; the remainder
// becomes the new pending fragment.
func (buffer *TailBuffer) Feed(data []byte) []string {
	if buffer.discarding {
		end := bytes.IndexByte(data, '\n')
		if end == -1 {
			buffer.discard(len(data))
			return nil
		}
		buffer.discard(end + 1)
		buffer.discarding = false
		data = data[end+1:]
	}

	buffer.pending = append(buffer.pending, data...)

	last := bytes.LastIndexByte(buffer.pending, '\n')
	if last == -1 {
		if buffer.maxLineBytes > 0 && len(buffer.pending) > buffer.maxLineBytes {
			buffer.discard(len(buffer.pending))
			buffer.pending = buffer.pending[:0]
			buffer.discarding = true
		}
		return nil
	}

	complete := string(buffer.pending[:last])
	buffer.pending = append(buffer.pending[:0], buffer.pending[last+1:]...)

	return strings.Split(complete, "\n")
}

// PendingSize returns the size in bytes of the buffered unterminated fragment
func (buffer *TailBuffer) PendingSize() int {
	return len(buffer.pending)
}

// Reset discards the pending fragment, for use when the active file is rotated
func (buffer *TailBuffer) Reset() {
	buffer.pending = buffer.pending[:0]
	buffer.discarding = false
}

func (buffer *TailBuffer) discard(droppedBytes int) {
	if buffer.onDiscard != nil && droppedBytes > 0 {
		buffer.onDiscard(droppedBytes)
	}
}
