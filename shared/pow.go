package shared

import (
	"encoding/binary"
	"encoding/hex"
)

// DifficultyWindow is the number of leading digest bytes compared against the
// decoded difficulty target. Shorter targets compare over the bytes actually
// present.
const DifficultyWindow = 4

// NonceTextLen is the width of a rendered nonce in the preimage encoding.
const NonceTextLen = 16

// NonceText renders a nonce as exactly 16 lowercase hex digits, zero padded,
// without a 0x prefix. The width and case are part of the preimage encoding
// the server verifies against and must not change.
func NonceText(nonce uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return hex.EncodeToString(buf[:])
}

// EncodePreimage builds the exact byte sequence hashed for one attempt: the
// nonce text, the miner address and the five challenge text fields
// concatenated in fixed order with no separators. The difficulty takes part
// as its hex text, not decoded.
//
// The encoding must stay byte-for-byte identical to the one the server
// re-derives during verification; any deviation in field order, case or
// padding silently produces a search that can never succeed.
func EncodePreimage(nonceText, address string, ch Challenge) []byte {
	size := len(nonceText) + len(address) + len(ch.ChallengeID) + len(ch.Difficulty) +
		len(ch.NoPreMine) + len(ch.LatestSubmission) + len(ch.NoPreMineHour)

	buf := make([]byte, 0, size)
	buf = append(buf, nonceText...)
	buf = append(buf, address...)
	buf = append(buf, ch.ChallengeID...)
	buf = append(buf, ch.Difficulty...)
	buf = append(buf, ch.NoPreMine...)
	buf = append(buf, ch.LatestSubmission...)
	buf = append(buf, ch.NoPreMineHour...)
	return buf
}

// MeetsDifficulty reports whether a digest satisfies the difficulty
// descriptor: the digest must be lexicographically less than or equal to the
// decoded difficulty bytes over the first min(DifficultyWindow, len(target))
// bytes, most significant byte first.
//
// This is a strict numeric-prefix rule, not a leading-zero-bits rule. A
// difficulty that does not decode as hex never matches, and a digest shorter
// than the compared window never matches.
func MeetsDifficulty(digest []byte, difficulty string) bool {
	target, err := hex.DecodeString(difficulty)
	if err != nil {
		return false
	}

	n := DifficultyWindow
	if len(target) < n {
		n = len(target)
	}
	for i := 0; i < n; i++ {
		if i >= len(digest) {
			return false
		}
		switch {
		case digest[i] < target[i]:
			return true
		case digest[i] > target[i]:
			return false
		}
	}
	return true
}
