package broker

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/logging"
)

// Server is the privileged broker daemon (§4.7): it is the only process that
// opens source media files directly, handing authenticated peers bytes over
// a line-framed JSON unix-socket protocol instead of a shared filesystem
// mount. Grounded on the teacher's watchman client's Dial/Command shape, run
// in reverse (server instead of client).
type Server struct {
	cat *catalog.Catalog
	cfg config.BrokerConfig

	allowedPID int
	progress   atomic.Pointer[ProgressSnapshot]
}

func NewServer(cat *catalog.Catalog, cfg config.BrokerConfig) (*Server, error) {
	s := &Server{cat: cat, cfg: cfg}
	if cfg.ClientPidFile != "" {
		pid, err := readClientPID(cfg.ClientPidFile)
		if err != nil {
			return nil, fmt.Errorf("broker: read client pid file: %w", err)
		}
		s.allowedPID = pid
	}
	return s, nil
}

func readClientPID(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse pid: %w", err)
	}
	return pid, nil
}

// SetProgress publishes the current queue snapshot for QueueProgress
// requests to read. No binary in this module calls it, so QueueProgress
// answers with the zero-value snapshot unless a caller publishes one.
func (s *Server) SetProgress(snap ProgressSnapshot) {
	s.progress.Store(&snap)
}

// Serve listens on the broker's unix socket until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.RemoveAll(s.cfg.SocketPath); err != nil {
		return fmt.Errorf("broker: clear stale socket: %w", err)
	}
	l, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("broker: listen: %w", err)
	}
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("broker: accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if !s.authenticate(conn) {
		logging.L().Warnw("broker: rejected unauthenticated connection")
		return
	}

	dec := json.NewDecoder(bufio.NewReader(conn))
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := s.handleRequest(ctx, conn, req); err != nil {
			logging.L().Warnw("broker: request failed, closing connection", "error", err)
			return
		}
	}
}

// authenticate tries the OS peer-credential check first and falls back to
// the shared-secret handshake on platforms (or sockets) where that's
// unavailable (§9: "Peer-credential pid check is OS-specific; on platforms
// without it, fall back to a high-entropy shared secret").
func (s *Server) authenticate(conn net.Conn) bool {
	if s.allowedPID != 0 {
		if pid, ok := peerPID(conn); ok {
			return pid == s.allowedPID
		}
	}
	if s.cfg.SharedSecret == "" {
		return false
	}
	return s.authenticateSharedSecret(conn)
}

func (s *Server) authenticateSharedSecret(conn net.Conn) bool {
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	token := strings.TrimSuffix(line, "\n")
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.SharedSecret)) == 1
}

func (s *Server) handleRequest(ctx context.Context, conn net.Conn, req Request) error {
	switch req.Kind {
	case RequestFileSize:
		return s.handleFileSize(ctx, conn, req)
	case RequestFileData:
		return s.handleFileData(ctx, conn, req)
	case RequestQueueProgress:
		return s.handleQueueProgress(conn)
	default:
		return fmt.Errorf("broker: unknown request kind %q", req.Kind)
	}
}

func (s *Server) validateFile(ctx context.Context, ref *FileRef) (os.FileInfo, error) {
	if ref == nil {
		return nil, fmt.Errorf("broker: missing file reference")
	}
	if err := s.checkAllowedRoot(ref.Path); err != nil {
		return nil, err
	}
	m, err := s.cat.MediaFromID(ctx, ref.DBID)
	if err != nil {
		return nil, fmt.Errorf("broker: db_id %d not found: %w", ref.DBID, err)
	}
	if m.Path != ref.Path {
		return nil, fmt.Errorf("broker: path %q disagrees with catalog entry for db_id %d", ref.Path, ref.DBID)
	}
	info, err := os.Stat(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("broker: stat: %w", err)
	}
	return info, nil
}

// checkAllowedRoot rejects any path that isn't lexically contained in one of
// the daemon's configured roots, closing the obvious "../.." escape.
func (s *Server) checkAllowedRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("broker: resolve path: %w", err)
	}
	for _, root := range s.cfg.AllowedRoots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..") {
			return nil
		}
	}
	return fmt.Errorf("broker: path %q is outside allowed roots", path)
}

func (s *Server) handleFileSize(ctx context.Context, conn net.Conn, req Request) error {
	info, err := s.validateFile(ctx, req.File)
	if err != nil {
		return writeErrorResponse(conn, err)
	}
	return writeResponse(conn, Response{FileSize: info.Size(), ResponseSize: 0})
}

func (s *Server) handleFileData(ctx context.Context, conn net.Conn, req Request) error {
	info, err := s.validateFile(ctx, req.File)
	if err != nil {
		return writeErrorResponse(conn, err)
	}
	if req.Start < 0 || req.End < req.Start || req.End > info.Size() {
		return writeErrorResponse(conn, fmt.Errorf("broker: invalid range [%d,%d) for file of size %d", req.Start, req.End, info.Size()))
	}

	f, err := os.Open(req.File.Path)
	if err != nil {
		return writeErrorResponse(conn, fmt.Errorf("broker: open: %w", err))
	}
	defer f.Close()

	if err := writeResponse(conn, Response{FileSize: info.Size(), ResponseSize: req.End - req.Start}); err != nil {
		return err
	}
	if _, err := f.Seek(req.Start, io.SeekStart); err != nil {
		return fmt.Errorf("broker: seek: %w", err)
	}
	_, err = io.CopyN(conn, f, req.End-req.Start)
	return err
}

func (s *Server) handleQueueProgress(conn net.Conn) error {
	snap := s.progress.Load()
	if snap == nil {
		snap = &ProgressSnapshot{}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := writeResponse(conn, Response{ResponseSize: int64(len(payload))}); err != nil {
		return err
	}
	_, err = conn.Write(payload)
	return err
}

func writeResponse(conn net.Conn, resp Response) error {
	enc := json.NewEncoder(conn)
	return enc.Encode(resp)
}

func writeErrorResponse(conn net.Conn, cause error) error {
	if err := writeResponse(conn, Response{Error: cause.Error()}); err != nil {
		return err
	}
	return cause
}
