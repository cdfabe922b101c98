//go:build linux

package broker

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerPID reads the connecting process's pid off the kernel's SO_PEERCRED
// credential for a unix socket, the primary authentication mechanism (§5):
// ok is false when conn isn't a *net.UnixConn or the kernel lookup fails, in
// which case the caller falls back to the shared-secret handshake.
func peerPID(conn net.Conn) (int, bool) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return 0, false
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return 0, false
	}

	var cred *unix.Ucred
	var sockErr error
	ctlErr := raw.Control(func(fd uintptr) {
		cred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctlErr != nil || sockErr != nil || cred == nil {
		return 0, false
	}
	return int(cred.Pid), true
}
