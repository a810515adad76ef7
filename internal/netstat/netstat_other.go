//go:build !linux

package netstat

import "tanknet/internal/transport/tcp"

// Read always fails on non-Linux platforms: TCP_INFO layout is
// kernel-specific and this package only implements the Linux one.
func Read(end *tcp.End) (Info, error) { return Info{}, ErrUnsupported }

// Supported reports whether TCP_INFO is available on this platform.
func Supported() bool { return false }
