package rcn

import "testing"

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("  0xABCDEF0123456789abcdef0123456789ABCDEF01 ")
	if err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	if got != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("address not normalized: %s", got)
	}

	bad := []string{
		"",
		"0x123",
		"abcdef0123456789abcdef0123456789abcdef0101",
		"0xzzcdef0123456789abcdef0123456789abcdef01",
	}
	for _, addr := range bad {
		if _, err := NormalizeAddress(addr); KindOf(err) != KindValidation {
			t.Fatalf("address %q should fail validation, got %v", addr, err)
		}
	}
}
