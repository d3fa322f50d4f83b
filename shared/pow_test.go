package shared_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hieunv6/scavenger-miner/shared"
)

func testChallenge() shared.Challenge {
	return shared.Challenge{
		ChallengeID:      "c1",
		Day:              3,
		ChallengeNumber:  7,
		Difficulty:       "00ffffffff",
		NoPreMine:        "seedA",
		LatestSubmission: "ls1",
		NoPreMineHour:    "h1",
	}
}

func TestNonceText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0000000000000000", shared.NonceText(0))
	require.Equal(t, "00000000deadbeef", shared.NonceText(0xdeadbeef))
	require.Equal(t, "ffffffffffffffff", shared.NonceText(math.MaxUint64))
	require.Len(t, shared.NonceText(1), shared.NonceTextLen)
}

func TestEncodePreimage(t *testing.T) {
	t.Parallel()

	ch := testChallenge()
	preimage := shared.EncodePreimage(shared.NonceText(0), "addrX", ch)
	require.Equal(t, "0000000000000000addrXc100ffffffffseedAls1h1", string(preimage))

	// Byte-for-byte reproducible for identical inputs.
	require.Equal(t, preimage, shared.EncodePreimage(shared.NonceText(0), "addrX", ch))
}

func TestMeetsDifficulty(t *testing.T) {
	t.Parallel()

	difficulty := "01000000"

	require.True(t, shared.MeetsDifficulty([]byte{0x00, 0xff, 0xff, 0xff}, difficulty))
	require.True(t, shared.MeetsDifficulty([]byte{0x01, 0x00, 0x00, 0x00}, difficulty))
	require.False(t, shared.MeetsDifficulty([]byte{0x01, 0x00, 0x00, 0x01}, difficulty))
	require.False(t, shared.MeetsDifficulty([]byte{0x02, 0x00, 0x00, 0x00}, difficulty))

	// Compared window is capped at 4 bytes; trailing target bytes are ignored.
	require.True(t, shared.MeetsDifficulty([]byte{0x00, 0x00, 0x00, 0x00, 0xff}, "0000000001"))
}

func TestMeetsDifficultyMonotonic(t *testing.T) {
	t.Parallel()

	difficulty := "00ffffffff"
	d2 := []byte{0x00, 0xff, 0xff, 0xff}
	d1 := []byte{0x00, 0xff, 0xff, 0xfe} // lexicographically below d2

	require.True(t, shared.MeetsDifficulty(d2, difficulty))
	require.True(t, shared.MeetsDifficulty(d1, difficulty))
}

func TestMeetsDifficultyShortTarget(t *testing.T) {
	t.Parallel()

	// A 2-byte target compares only over the bytes actually present.
	require.True(t, shared.MeetsDifficulty([]byte{0x00, 0x01, 0xff, 0xff}, "0001"))
	require.False(t, shared.MeetsDifficulty([]byte{0x00, 0x02, 0x00, 0x00}, "0001"))

	// An empty target compares over nothing and matches every digest. The
	// server never issues one; Challenge.Validate rejects it upstream.
	require.True(t, shared.MeetsDifficulty([]byte{0xff}, ""))
}

func TestMeetsDifficultyMalformed(t *testing.T) {
	t.Parallel()

	// Undecodable hex never matches and never panics.
	require.False(t, shared.MeetsDifficulty([]byte{0x00, 0x00, 0x00, 0x00}, "zz"))
	require.False(t, shared.MeetsDifficulty([]byte{0x00, 0x00, 0x00, 0x00}, "012"))

	// Digest shorter than the compared window never matches.
	require.False(t, shared.MeetsDifficulty([]byte{0x00, 0x00}, "00000000"))
	require.False(t, shared.MeetsDifficulty(nil, "00000000"))
}

func TestChallengeValidate(t *testing.T) {
	t.Parallel()

	ch := testChallenge()
	require.NoError(t, ch.Validate())

	ch = testChallenge()
	ch.ChallengeID = ""
	ch.NoPreMine = ""
	err := ch.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "challenge_id is empty")
	require.ErrorContains(t, err, "no_pre_mine is empty")

	ch = testChallenge()
	ch.Difficulty = "not-hex"
	require.ErrorContains(t, ch.Validate(), "difficulty is not valid hex")

	ch = testChallenge()
	ch.Difficulty = ""
	require.ErrorContains(t, ch.Validate(), "difficulty is empty")
}
