// Package socket creates datagram sockets with sane buffer sizes for
// frame-sized bursts of traffic.
package socket

import (
	"errors"
	"net"
	"os"
	"runtime"
	"syscall"
)

const listenAttempts = 42
const udpBufferSize = 16 * 1024 * 1024

// ListenUDP binds a datagram socket on the given local port.
func ListenUDP(port int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	_ = conn.SetReadBuffer(udpBufferSize)
	_ = conn.SetWriteBuffer(udpBufferSize)
	return conn, nil
}

// ListenUDPPortRoll binds a datagram socket on the first free port
// starting from the given one.
func ListenUDPPortRoll(port int) (*net.UDPConn, error) {
	conn, err := ListenUDP(port)
	if err == nil {
		return conn, nil
	}
	if IsPortBusyError(err) {
		for i := port + 1; i < port+listenAttempts; i++ {
			if conn, err := ListenUDP(i); err == nil {
				return conn, nil
			}
		}
		return nil, errors.New("no available ports")
	}
	return nil, err
}

// DialUDP connects a datagram socket to the given destination so plain
// Write calls can be used for sending.
func DialUDP(host string, port int) (*net.UDPConn, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return nil, errors.New("socket: cannot resolve " + host)
		}
		ip = ips[0]
	}
	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: ip, Port: port})
	if err != nil {
		return nil, err
	}
	_ = conn.SetWriteBuffer(udpBufferSize)
	return conn, nil
}

// IsPortBusyError tests if the given error is one of
// the port busy errors.
func IsPortBusyError(err error) bool {
	if err == nil {
		return false
	}
	var eOsSyscall *os.SyscallError
	if !errors.As(err, &eOsSyscall) {
		return false
	}
	var errErrno syscall.Errno
	if !errors.As(eOsSyscall, &errErrno) {
		return false
	}
	if errErrno == syscall.EADDRINUSE {
		return true
	}
	const WSAEADDRINUSE = 10048
	return runtime.GOOS == "windows" && errErrno == WSAEADDRINUSE
}
