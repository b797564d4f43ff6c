package ipresolve

import (
	"net"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ARPSource sends an ARP request for every candidate address on a bridge
// and decodes replies, the active-probe analogue of the bridge's passive
// ipmac snooper.
type ARPSource struct {
	Bridge     string
	Candidates []string // subnet hosts to probe, e.g. 192.168.1.2 .. .254
	Timeout    time.Duration
}

func (s ARPSource) Resolve(guestID, mac string) (string, float64, bool) {
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Second
	}

	handle, err := pcap.OpenLive(s.Bridge, 1600, true, s.Timeout)
	if err != nil {
		return "", 0, false
	}
	defer handle.Close()

	iface, err := net.InterfaceByName(s.Bridge)
	if err != nil {
		return "", 0, false
	}

	for _, candidate := range s.Candidates {
		if err := sendARPRequest(handle, iface, candidate); err != nil {
			continue
		}
	}

	deadline := time.Now().Add(s.Timeout)
	var eth layers.Ethernet
	var arp layers.ARP
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &arp)
	decoded := []gopacket.LayerType{}

	for time.Now().Before(deadline) {
		data, _, err := handle.ReadPacketData()
		if err == pcap.NextErrorTimeoutExpired {
			continue
		} else if err != nil {
			break
		}

		if err := parser.DecodeLayers(data, &decoded); err != nil {
			continue
		}

		for _, lt := range decoded {
			if lt != layers.LayerTypeARP {
				continue
			}
			if arp.Operation != layers.ARPReply {
				continue
			}
			if strings.EqualFold(net.HardwareAddr(arp.SourceHwAddress).String(), mac) {
				return net.IP(arp.SourceProtAddress).String(), confidence[MethodARP], true
			}
		}
	}

	return "", 0, false
}

func sendARPRequest(handle *pcap.Handle, iface *net.Interface, targetIP string) error {
	eth := layers.Ethernet{
		SrcMAC:       iface.HardwareAddr,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}

	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   iface.HardwareAddr,
		SourceProtAddress: []byte{0, 0, 0, 0},
		DstHwAddress:      net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstProtAddress:    net.ParseIP(targetIP).To4(),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return err
	}
	return handle.WritePacketData(buf.Bytes())
}
