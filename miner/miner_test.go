package miner_test

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hieunv6/scavenger-miner/miner"
	"github.com/hieunv6/scavenger-miner/shared"
)

// hasherFunc adapts a function to the Hasher interface.
type hasherFunc func(preimage []byte) [64]byte

func (f hasherFunc) Sum(preimage []byte) [64]byte { return f(preimage) }

var neverMatches = hasherFunc(func([]byte) [64]byte {
	var d [64]byte
	for i := range d {
		d[i] = 0xff
	}
	return d
})

func testChallenge() shared.Challenge {
	return shared.Challenge{
		ChallengeID:      "c1",
		Difficulty:       "00ffffffff",
		NoPreMine:        "seedA",
		LatestSubmission: "ls1",
		NoPreMineHour:    "h1",
	}
}

func TestZeroBudgetNeverInvokesHasher(t *testing.T) {
	t.Parallel()

	var calls atomic.Uint64
	hasher := hasherFunc(func([]byte) [64]byte {
		calls.Add(1)
		return [64]byte{}
	})

	m := miner.New(hasher, 0)
	res, err := m.Mine(context.Background(), testChallenge(), "addrX")
	require.ErrorIs(t, err, miner.ErrExhausted)
	require.Nil(t, res)
	require.Zero(t, calls.Load(), "hasher must not be invoked with a zero attempt budget")
}

func TestFirstAttemptWins(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var preimages []string
	hasher := hasherFunc(func(preimage []byte) [64]byte {
		mu.Lock()
		preimages = append(preimages, string(preimage))
		mu.Unlock()
		return [64]byte{} // all zero, below any non-zero target
	})

	m := miner.New(hasher, 1000, miner.WithStartNonce(0))
	res, err := m.Mine(context.Background(), testChallenge(), "addrX")
	require.NoError(t, err)
	require.Equal(t, "0000000000000000", res.Nonce)
	require.EqualValues(t, 1, res.Attempts)
	// No further nonces are consulted after the first match.
	require.Equal(t, []string{"0000000000000000addrXc100ffffffffseedAls1h1"}, preimages)
}

func TestNonceCoverage(t *testing.T) {
	t.Parallel()

	const seed, n = uint64(42), uint64(16)

	var mu sync.Mutex
	var visited []string
	hasher := hasherFunc(func(preimage []byte) [64]byte {
		mu.Lock()
		visited = append(visited, string(preimage[:shared.NonceTextLen]))
		mu.Unlock()
		return neverMatches(preimage)
	})

	m := miner.New(hasher, n, miner.WithStartNonce(seed))
	_, err := m.Mine(context.Background(), testChallenge(), "addrX")
	require.ErrorIs(t, err, miner.ErrExhausted)

	// Exactly the sequence seed..seed+n-1, in order, no repeats, no gaps.
	expected := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		expected = append(expected, shared.NonceText(seed+i))
	}
	require.Equal(t, expected, visited)
}

func TestNonceCoverageWraps(t *testing.T) {
	t.Parallel()

	const n = uint64(8)
	seed := uint64(math.MaxUint64 - 3)

	var mu sync.Mutex
	visited := map[string]bool{}
	hasher := hasherFunc(func(preimage []byte) [64]byte {
		mu.Lock()
		visited[string(preimage[:shared.NonceTextLen])] = true
		mu.Unlock()
		return neverMatches(preimage)
	})

	m := miner.New(hasher, n, miner.WithStartNonce(seed))
	_, err := m.Mine(context.Background(), testChallenge(), "addrX")
	require.ErrorIs(t, err, miner.ErrExhausted)

	require.Len(t, visited, int(n))
	require.True(t, visited[shared.NonceText(math.MaxUint64)])
	require.True(t, visited[shared.NonceText(0)], "nonce must wrap mod 2^64")
	require.True(t, visited[shared.NonceText(3)])
}

func TestShardingFindsSameSolution(t *testing.T) {
	t.Parallel()

	const seed, budget = uint64(1000), uint64(64)
	winner := shared.NonceText(seed + 37) // the only satisfying nonce in range

	// A pure stub oracle: the digest depends only on the preimage.
	hasher := hasherFunc(func(preimage []byte) [64]byte {
		if string(preimage[:shared.NonceTextLen]) == winner {
			return [64]byte{}
		}
		return neverMatches(preimage)
	})

	for _, workers := range []int{1, 4} {
		m := miner.New(hasher, budget, miner.WithStartNonce(seed), miner.WithWorkers(workers))
		res, err := m.Mine(context.Background(), testChallenge(), "addrX")
		require.NoError(t, err)
		require.Equal(t, winner, res.Nonce, "workers=%d", workers)
	}
}

func TestCancellation(t *testing.T) {
	t.Parallel()

	var calls atomic.Uint64
	hasher := hasherFunc(func(preimage []byte) [64]byte {
		calls.Add(1)
		time.Sleep(time.Millisecond)
		return neverMatches(preimage)
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	m := miner.New(hasher, math.MaxUint64, miner.WithWorkers(2))
	_, err := m.Mine(ctx, testChallenge(), "addrX")
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, calls.Load(), uint64(1000))
}

func TestProgressSnapshots(t *testing.T) {
	t.Parallel()

	hasher := hasherFunc(func(preimage []byte) [64]byte {
		time.Sleep(5 * time.Millisecond)
		return neverMatches(preimage)
	})

	var mu sync.Mutex
	var snapshots []miner.Progress
	m := miner.New(hasher, 250, miner.WithProgress(func(p miner.Progress) {
		mu.Lock()
		snapshots = append(snapshots, p)
		mu.Unlock()
	}))

	_, err := m.Mine(context.Background(), testChallenge(), "addrX")
	require.ErrorIs(t, err, miner.ErrExhausted)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snapshots, "expected at least one snapshot per elapsed second")
	last := snapshots[len(snapshots)-1]
	require.NotZero(t, last.Attempts)
	require.Greater(t, last.Rate, 0.0)
}
