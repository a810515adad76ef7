// Package discovery implements the LAN discovery subprotocol: a server
// side advertiser that answers broadcast probes from recognized local
// subnets, and a client side finder that deduplicates responses to the
// probes its caller broadcasts.
package discovery

import (
	"net"
	"strconv"

	"tanknet/internal/protocol"
	"tanknet/pkg/wire"
)

// LocalSubnets enumerates the IPv4 networks attached to this machine's
// interfaces, used by the advertiser to validate a discovery request's
// source address.
func LocalSubnets() ([]*net.IPNet, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	var nets []*net.IPNet
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.To4() == nil {
			continue
		}
		nets = append(nets, ipnet)
	}
	return nets, nil
}

// BroadcastAddrs returns the directed broadcast address for every
// attached IPv4 subnet, used by the finder to send probes without
// needing to already know any server's address.
func BroadcastAddrs() ([]net.IP, error) {
	nets, err := LocalSubnets()
	if err != nil {
		return nil, err
	}
	var out []net.IP
	for _, n := range nets {
		bcast := make(net.IP, len(n.IP.To4()))
		ip := n.IP.To4()
		mask := n.Mask
		for i := range bcast {
			bcast[i] = ip[i] | ^mask[i]
		}
		out = append(out, bcast)
	}
	return out, nil
}

// belongsToLAN reports whether ip falls within any of nets.
func belongsToLAN(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Advertiser answers lan-server-discovery probes from recognized LAN
// subnets with the server's TCP address.
type Advertiser struct {
	tcpIP   uint32
	tcpPort uint16
}

// NewAdvertiser creates an advertiser that answers with tcpIP:tcpPort.
func NewAdvertiser(tcpIP net.IP, tcpPort uint16) *Advertiser {
	return &Advertiser{tcpIP: protocol.IPv4ToUint32(tcpIP), tcpPort: tcpPort}
}

// HandleDiscovery validates a discovery request's tag and source
// subnet, and returns the encoded lan-server-response to send back, or
// ok=false if the request should be silently dropped.
func (a *Advertiser) HandleDiscovery(tag protocol.Tag, source net.IP, localNets []*net.IPNet) ([]byte, bool) {
	if tag != protocol.TagLanServerDiscovery {
		return nil, false
	}
	if !belongsToLAN(source, localNets) {
		return nil, false
	}
	w := wire.NewWriter(8)
	resp := protocol.LanServerResponse{IP: a.tcpIP, Port: a.tcpPort}
	resp.Encode(w)
	return w.Bytes(), true
}

// discoveredServer is one deduplicated response the finder has seen.
type discoveredServer struct {
	IP   net.IP
	Port uint16
}

// Finder deduplicates lan-server-response messages into a discovery
// list. It does not send probes itself; the caller broadcasts the bytes
// from EncodeProbe.
type Finder struct {
	found map[string]discoveredServer
}

// NewFinder creates an empty finder.
func NewFinder() *Finder {
	return &Finder{found: make(map[string]discoveredServer)}
}

// EncodeProbe returns the wire bytes of one lan-server-discovery
// message, sent to every broadcast address returned by BroadcastAddrs.
func EncodeProbe() []byte {
	w := wire.NewWriter(1)
	w.WriteUint8(uint8(protocol.TagLanServerDiscovery))
	return w.Bytes()
}

// OnResponse records a lan-server-response, deduplicating by ip:port.
func (f *Finder) OnResponse(resp protocol.LanServerResponse) {
	ip := protocol.Uint32ToIPv4(resp.IP)
	key := ip.String() + ":" + strconv.Itoa(int(resp.Port))
	f.found[key] = discoveredServer{IP: ip, Port: resp.Port}
}

// Reset clears the discovery list, called before issuing a fresh round
// of probes.
func (f *Finder) Reset() { f.found = make(map[string]discoveredServer) }

// Results returns every distinct server discovered since the last Reset.
func (f *Finder) Results() []discoveredServer {
	out := make([]discoveredServer, 0, len(f.found))
	for _, s := range f.found {
		out = append(out, s)
	}
	return out
}
