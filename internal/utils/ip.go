package utils

import (
	"encoding/hex"
	"net"
)

// IPKey returns the fixed-width hex form of an IP address (32 hex chars over
// the 16-byte representation). Keys of addresses inside the same CIDR block
// sort lexicographically between the block's first and last key, which lets a
// string BETWEEN stand in for subnet containment.
func IPKey(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return hex.EncodeToString(ip.To16())
}

// CIDRRange returns the keys of the first and last address of a CIDR block.
func CIDRRange(cidr *net.IPNet) (string, string) {
	first := cidr.IP.Mask(cidr.Mask).To16()
	last := make(net.IP, len(first))
	copy(last, first)

	// Set all host bits. The mask of an IPv4 net is 4 bytes; work from the
	// tail so both families line up in the 16-byte form.
	mask := cidr.Mask
	for i := 0; i < len(mask); i++ {
		last[len(last)-len(mask)+i] |= ^mask[i]
	}
	return hex.EncodeToString(first), hex.EncodeToString(last)
}
