package broker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// nextChunkTimeout bounds how long a Stream read waits on a FileData round
// trip before treating the broker as unresponsive (§4.7).
const nextChunkTimeout = 5 * time.Second

// Client is a single connection to the broker daemon. Requests are
// serialized with mu since the protocol is strictly request/response over
// one socket, mirroring the teacher's watchman client's Command mutex. A
// single bufio.Reader is shared between the JSON header and the raw payload
// bytes that follow it, so nothing read-ahead by the header parse is lost.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the broker and authenticates. sharedSecret is sent as the
// handshake token; pass "" when relying solely on the peer-credential check.
func Dial(socketPath, sharedSecret string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	if sharedSecret != "" {
		if _, err := fmt.Fprintf(conn, "%s\n", sharedSecret); err != nil {
			conn.Close()
			return nil, fmt.Errorf("broker: send handshake: %w", err)
		}
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends req and reads back the JSON response header. It must be
// called with mu held.
func (c *Client) roundTrip(req Request) (Response, error) {
	c.conn.SetDeadline(time.Now().Add(nextChunkTimeout))
	defer c.conn.SetDeadline(time.Time{})

	if err := json.NewEncoder(c.conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("broker: send request: %w", err)
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("broker: read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("broker: parse response: %w", err)
	}
	if resp.Error != "" {
		return Response{}, fmt.Errorf("broker: %s", resp.Error)
	}
	return resp, nil
}

// FileSize asks the broker for a file's total length.
func (c *Client) FileSize(ref FileRef) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(Request{Kind: RequestFileSize, File: &ref})
	if err != nil {
		return 0, err
	}
	return resp.FileSize, nil
}

// FileData fetches the half-open byte range [start, end) and returns it.
func (c *Client) FileData(ref FileRef, start, end int64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(Request{Kind: RequestFileData, File: &ref, Start: start, End: end})
	if err != nil {
		return nil, err
	}

	c.conn.SetReadDeadline(time.Now().Add(nextChunkTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, resp.ResponseSize)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return nil, fmt.Errorf("broker: read payload: %w", err)
	}
	return buf, nil
}

// QueueProgress asks the broker for its current drain-loop snapshot.
func (c *Client) QueueProgress() (ProgressSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(Request{Kind: RequestQueueProgress})
	if err != nil {
		return ProgressSnapshot{}, err
	}

	buf := make([]byte, resp.ResponseSize)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return ProgressSnapshot{}, fmt.Errorf("broker: read payload: %w", err)
	}
	var snap ProgressSnapshot
	if err := json.Unmarshal(buf, &snap); err != nil {
		return ProgressSnapshot{}, fmt.Errorf("broker: parse progress: %w", err)
	}
	return snap, nil
}
