package broker

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/config"
)

func TestCheckAllowedRoot(t *testing.T) {
	s := &Server{cfg: config.BrokerConfig{AllowedRoots: []string{"/srv/media"}}}

	assert.NoError(t, s.checkAllowedRoot("/srv/media/photo.jpg"))
	assert.NoError(t, s.checkAllowedRoot("/srv/media/sub/dir/photo.jpg"))
	assert.Error(t, s.checkAllowedRoot("/srv/media/../etc/passwd"))
	assert.Error(t, s.checkAllowedRoot("/etc/passwd"))
}

func TestAuthenticateSharedSecret(t *testing.T) {
	s := &Server{cfg: config.BrokerConfig{SharedSecret: "correct-horse-battery-staple"}}
	client, serverConn := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("correct-horse-battery-staple\n"))
	}()

	assert.True(t, s.authenticateSharedSecret(serverConn))
}

func TestAuthenticateSharedSecret_Mismatch(t *testing.T) {
	s := &Server{cfg: config.BrokerConfig{SharedSecret: "correct-horse-battery-staple"}}
	client, serverConn := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("wrong-token\n"))
	}()

	assert.False(t, s.authenticateSharedSecret(serverConn))
}

func TestAuthenticate_NoPeerPIDFallsBackToSharedSecret(t *testing.T) {
	s := &Server{allowedPID: 0, cfg: config.BrokerConfig{SharedSecret: "token"}}
	client, serverConn := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("token\n"))
	}()

	assert.True(t, s.authenticate(serverConn))
}

func TestAuthenticate_NoSharedSecretConfiguredRejects(t *testing.T) {
	s := &Server{allowedPID: 0, cfg: config.BrokerConfig{}}
	client, serverConn := net.Pipe()
	defer client.Close()
	client.SetDeadline(time.Now().Add(time.Second))

	done := make(chan bool, 1)
	go func() { done <- s.authenticate(serverConn) }()

	assert.False(t, <-done)
}

// fakeStreamSource lets Stream's cursor/buffering arithmetic be exercised
// without a real socket; it records every FileData call so tests can assert
// on how many round trips a sequence of reads actually issued.
type fakeStreamSource struct {
	data  []byte
	calls int
}

func (f *fakeStreamSource) FileSize(ref FileRef) (int64, error) {
	return int64(len(f.data)), nil
}

func (f *fakeStreamSource) FileData(ref FileRef, start, end int64) ([]byte, error) {
	f.calls++
	return f.data[start:end], nil
}

func TestStream_SequentialReadUsesBufferedRange(t *testing.T) {
	src := &fakeStreamSource{data: []byte("hello world, this is a broker stream test payload")}
	s, err := NewStream(src, FileRef{Path: "/srv/media/a.bin", DBID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(len(src.data)), s.Len())

	buf := make([]byte, 5)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, " worl", string(buf[:n]))

	// Both reads fell inside the single chunk fetched by the first Read.
	assert.Equal(t, 1, src.calls)
}

func TestStream_SeekThenReadIssuesNewRangeWhenOutsideBuffer(t *testing.T) {
	// The payload is longer than defaultChunkSize, so the chunk fetched by
	// the first Read ends before the seek target.
	data := make([]byte, defaultChunkSize+36)
	copy(data[defaultChunkSize:], "0123456789abcdefghijklmnopqrstuvwxyz")
	src := &fakeStreamSource{data: data}
	s, err := NewStream(src, FileRef{Path: "/srv/media/a.bin", DBID: 1})
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = s.Read(buf)
	require.NoError(t, err)

	pos, err := s.Seek(defaultChunkSize+30, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(defaultChunkSize+30), pos)

	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "uvwx", string(buf[:n]))
	assert.Equal(t, 2, src.calls)
}

func TestStream_SeekIsPureArithmeticNoRoundTrip(t *testing.T) {
	src := &fakeStreamSource{data: []byte("0123456789")}
	s, err := NewStream(src, FileRef{Path: "/srv/media/a.bin", DBID: 1})
	require.NoError(t, err)
	require.Equal(t, 0, src.calls)

	_, err = s.Seek(5, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	_, err = s.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	assert.Equal(t, 0, src.calls)
}

func TestStream_SeekNegativeRejected(t *testing.T) {
	src := &fakeStreamSource{data: []byte("0123456789")}
	s, err := NewStream(src, FileRef{Path: "/srv/media/a.bin", DBID: 1})
	require.NoError(t, err)

	_, err = s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestStream_ReadPastEndReturnsEOF(t *testing.T) {
	src := &fakeStreamSource{data: []byte("0123456789")}
	s, err := NewStream(src, FileRef{Path: "/srv/media/a.bin", DBID: 1})
	require.NoError(t, err)

	_, err = s.Seek(10, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = s.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
