//go:build linux

package netstat

import (
	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"

	"tanknet/internal/transport/tcp"
)

// Read fetches TCP_INFO for end's underlying socket via getsockopt.
func Read(end *tcp.End) (Info, error) {
	fd, err := netfd.GetFd(end.Conn())
	if err != nil {
		return Info{}, err
	}
	raw, err := unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	if err != nil {
		return Info{}, err
	}
	return Info{
		State:          raw.State,
		RTTMicros:      raw.Rtt,
		RTTVarMicros:   raw.Rttvar,
		Retransmits:    raw.Retransmits,
		TotalRetrans:   raw.Total_retrans,
		SendCongestWnd: raw.Snd_cwnd,
		SendMSS:        raw.Snd_mss,
	}, nil
}

// Supported reports whether TCP_INFO is available on this platform.
func Supported() bool { return true }
