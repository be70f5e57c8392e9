package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes and flushes buffered destinations after each one so report lines appear as they are produced.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
}

// NewFlushingWriter wraps destination unless it is nil or already wrapped.
func NewFlushingWriter(destination io.Writer) io.Writer {
	switch destination.(type) {
	case nil, *FlushingWriter:
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write forwards data and flushes the destination when it supports Flush.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	bytesWritten, writeError := writer.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableDestination, canFlush := writer.destination.(flusher); canFlush {
		return bytesWritten, flushableDestination.Flush()
	}
	return bytesWritten, nil
}
