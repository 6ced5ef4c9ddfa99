package rcn

import "strings"

// NormalizeAddress lowercases and validates a wallet address. Addresses are
// the customer primary key, so every entry point normalizes before lookup.
func NormalizeAddress(address string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(address))
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return "", Validation("malformed wallet address").WithDetail("address", address)
	}
	for _, r := range addr[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", Validation("malformed wallet address").WithDetail("address", address)
		}
	}
	return addr, nil
}
