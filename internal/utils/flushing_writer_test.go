package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/actions-audit/internal/utils"
)

func TestFlushingWriterFlushesBufferedDestination(testInstance *testing.T) {
	underlying := &bytes.Buffer{}
	buffered := bufio.NewWriterSize(underlying, 4096)

	writer := utils.NewFlushingWriter(buffered)
	bytesWritten, writeError := writer.Write([]byte("octo-org/service: foo/bar@v1 \"ci.yml\"\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 38, bytesWritten)
	require.Equal(testInstance, "octo-org/service: foo/bar@v1 \"ci.yml\"\n", underlying.String())
}

func TestNewFlushingWriterWrapping(testInstance *testing.T) {
	require.Nil(testInstance, utils.NewFlushingWriter(nil))

	plain := &bytes.Buffer{}
	wrapped := utils.NewFlushingWriter(plain)
	require.IsType(testInstance, &utils.FlushingWriter{}, wrapped)
	require.Same(testInstance, wrapped, utils.NewFlushingWriter(wrapped))

	_, writeError := wrapped.Write([]byte("line\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "line\n", plain.String())
}
