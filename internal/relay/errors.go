package relay

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrNoConnectivity marks transport failures caused by the local network
// being unavailable rather than by the relay.
var ErrNoConnectivity = errors.New("no network connectivity")

var connectivityErrnos = []syscall.Errno{
	syscall.ENETUNREACH,
	syscall.EHOSTUNREACH,
	syscall.ENETDOWN,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	// Keepalive gave up on a dead link.
	syscall.ETIMEDOUT,
}

// IsNoConnectivity reports whether err is a connectivity failure.
func IsNoConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoConnectivity) {
		return true
	}
	for _, errno := range connectivityErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && !dnsErr.IsNotFound
}

func classify(err error) error {
	if err == nil || errors.Is(err, ErrNoConnectivity) || !IsNoConnectivity(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNoConnectivity, err)
}
