// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqual       = 0x87
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	opReturn      = 0x6a
	push20        = 0x14
	push33        = 0x21
	push65        = 0x41

	maxOpReturnLen = 83
)

// PayToPubKeyHash returns the standard script paying to [hash].
func PayToPubKeyHash(hash [20]byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, push20)
	script = append(script, hash[:]...)
	return append(script, opEqualVerify, opCheckSig)
}

// IsStandardPayoutScript accepts pay to pubkey hash, pay to script hash, pay
// to pubkey and data carrier scripts.
func IsStandardPayoutScript(script []byte) bool {
	if len(script) == 0 {
		return false
	}
	switch script[0] {
	case opDup:
		return len(script) == 25 &&
			script[1] == opHash160 &&
			script[2] == push20 &&
			script[23] == opEqualVerify &&
			script[24] == opCheckSig
	case opHash160:
		return len(script) == 23 && script[1] == push20 && script[22] == opEqual
	case push33:
		return len(script) == 35 && script[34] == opCheckSig
	case push65:
		return len(script) == 67 && script[66] == opCheckSig
	case opReturn:
		return len(script) <= maxOpReturnLen
	default:
		return false
	}
}
