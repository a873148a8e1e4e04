package scan

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"github.com/endorses/datmatch/internal/pkg/ahocorasick"
	"github.com/endorses/datmatch/internal/pkg/logger"
)

// scanPcapFile scans the application payload of every packet in a capture.
// Payloads are scanned byte-wise as Latin-1 text, which maps each byte to
// the identical code unit, so binary protocols match exactly.
func scanPcapFile(trie *ahocorasick.Trie[string], path string) ([]match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap %s: %w", path, err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read pcap %s: %w", path, err)
	}

	var matches []match
	for packetNum := 0; ; packetNum++ {
		data, _, err := r.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read pcap %s: %w", path, err)
		}

		packet := gopacket.NewPacket(data, r.LinkType(), gopacket.Lazy)
		app := packet.ApplicationLayer()
		if app == nil {
			continue
		}
		payload := app.Payload()
		if len(payload) == 0 {
			continue
		}

		units := bytesToUnits(payload)
		trie.ParseUnits(units, 0, len(units), func(h ahocorasick.Hit[string]) bool {
			matches = append(matches, match{
				source: path,
				packet: packetNum,
				hit:    h,
				text:   unitsToASCII(units[h.Begin:h.End]),
			})
			return maxHits <= 0 || len(matches) < maxHits
		})
		if maxHits > 0 && len(matches) >= maxHits {
			break
		}
	}
	logger.Debug("Scanned capture", "path", path, "hits", len(matches))
	return matches, nil
}

// bytesToUnits widens raw payload bytes to code units one-to-one.
func bytesToUnits(payload []byte) []uint16 {
	units := make([]uint16, len(payload))
	for i, b := range payload {
		units[i] = uint16(b)
	}
	return units
}

// unitsToASCII renders matched payload units for display, masking anything
// unprintable.
func unitsToASCII(units []uint16) string {
	out := make([]byte, len(units))
	for i, u := range units {
		if u >= 0x20 && u < 0x7f {
			out[i] = byte(u)
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
