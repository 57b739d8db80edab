package contract

import (
	"encoding/hex"
	"strings"
)

// errorSelector is the 4-byte selector of Error(string), the payload solidity
// emits for require(..., "reason") reverts.
const errorSelector = "08c379a0"

// DecodeRevertReason extracts a human-readable reason from raw ABI-encoded
// revert data. Returns "" if the payload is absent or not an Error(string).
func DecodeRevertReason(revertData string) string {
	clean := strings.TrimPrefix(revertData, "0x")
	if !strings.HasPrefix(clean, errorSelector) {
		return ""
	}
	payload, err := hex.DecodeString(clean[len(errorSelector):])
	if err != nil || len(payload) < 64 {
		return ""
	}

	// offset word (ignored, always 0x20) then length word then string bytes.
	length := 0
	for _, b := range payload[32:64] {
		length = length<<8 | int(b)
	}
	if length <= 0 || 64+length > len(payload) {
		return ""
	}
	return string(payload[64 : 64+length])
}
