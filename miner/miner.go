// Package miner implements the nonce search: it iterates a bounded attempt
// budget over the nonce space, hashing a deterministic preimage per attempt
// and testing the digest against the round's difficulty.
package miner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hieunv6/scavenger-miner/logging"
	"github.com/hieunv6/scavenger-miner/shared"
)

//go:generate mockgen -package mocks -destination mocks/hasher.go . Hasher

// Hasher is the hash-oracle contract the search depends on: a pure function
// of the preimage and the round's work memory. Identical inputs must always
// yield an identical digest.
type Hasher interface {
	Sum(preimage []byte) [64]byte
}

var (
	hashesPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scavenger",
		Name:      "hashes_per_second",
		Help:      "Hash attempt rate of the running search",
	})
	attemptsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scavenger",
		Name:      "attempts_total",
		Help:      "Number of hash attempts",
	})
)

// ErrExhausted is returned when the attempt budget runs out without a winning
// nonce. It is an expected outcome, not a failure; callers handle it by
// reporting no result or extending the budget.
var ErrExhausted = errors.New("attempt budget exhausted")

// Progress is an advisory throughput snapshot, published at least once per
// second while a search runs.
type Progress struct {
	Attempts uint64
	Elapsed  time.Duration
	Rate     float64
}

// Result describes a successful search.
type Result struct {
	// Nonce is the winning nonce as 16 lowercase hex digits, exactly as it
	// must be submitted upstream.
	Nonce    string
	Attempts uint64
	Elapsed  time.Duration
}

type Miner struct {
	hasher        Hasher
	maxIterations uint64
	workers       uint64
	startNonce    func() uint64
	onProgress    func(Progress)
}

type Opt func(*Miner)

// WithWorkers shards the nonce space across n workers. Worker k visits
// seed+k, seed+k+n, ... so the union of strides covers the same range a
// sequential pass would.
func WithWorkers(n int) Opt {
	return func(m *Miner) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		m.workers = uint64(n)
	}
}

// WithStartNonce pins the session seed instead of deriving it from the
// clock. Used for replaying a search and in tests.
func WithStartNonce(seed uint64) Opt {
	return func(m *Miner) {
		m.startNonce = func() uint64 { return seed }
	}
}

// WithProgress registers a callback invoked with each throughput snapshot.
// The callback runs on the reporter goroutine and must not block.
func WithProgress(fn func(Progress)) Opt {
	return func(m *Miner) {
		m.onProgress = fn
	}
}

// New creates a single-worker miner with the given attempt budget.
func New(hasher Hasher, maxIterations uint64, opts ...Opt) *Miner {
	m := &Miner{
		hasher:        hasher,
		maxIterations: maxIterations,
		workers:       1,
		startNonce:    sessionSeed,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// sessionSeed derives the first nonce of a session from the wall clock. This
// is a best-effort collision-avoidance heuristic only: independent miners
// started within the same second will overlap search ranges, as no
// coordination protocol exists between them.
func sessionSeed() uint64 {
	return uint64(time.Now().Unix())
}

// Mine searches for a nonce whose digest satisfies the challenge difficulty.
// Attempt i uses nonce seed+i (wrapping mod 2^64); the first worker to find a
// match wins and the siblings are cancelled cooperatively between attempts.
//
// Returns ErrExhausted once the attempt budget is spent without a match, or
// the context error if cancelled. The work memory behind the Hasher must
// have been built from this challenge's no_pre_mine seed.
func (m *Miner) Mine(ctx context.Context, ch shared.Challenge, address string) (*Result, error) {
	start := time.Now()
	seed := m.startNonce()

	logger := logging.FromContext(ctx)
	logger.Info("mining started",
		zap.String("challenge_id", ch.ChallengeID),
		zap.String("difficulty", ch.Difficulty),
		zap.Uint64("max_iterations", m.maxIterations),
		zap.Uint64("workers", m.workers),
		zap.String("start_nonce", shared.NonceText(seed)),
	)

	var attempts atomic.Uint64

	reporterCtx, stopReporter := context.WithCancel(ctx)
	defer stopReporter()
	go m.report(reporterCtx, start, &attempts)

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan string, m.workers)
	var eg errgroup.Group
	for k := uint64(0); k < m.workers; k++ {
		k := k
		eg.Go(func() error {
			for i := k; i < m.maxIterations; i += m.workers {
				select {
				case <-searchCtx.Done():
					return nil
				default:
				}

				nonceText := shared.NonceText(seed + i)
				digest := m.hasher.Sum(shared.EncodePreimage(nonceText, address, ch))
				attempts.Add(1)

				if shared.MeetsDifficulty(digest[:], ch.Difficulty) {
					found <- nonceText
					cancel()
					return nil
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	stopReporter()

	elapsed := time.Since(start)
	total := attempts.Load()

	select {
	case nonce := <-found:
		logger.Info("found valid nonce",
			zap.String("nonce", nonce),
			zap.Uint64("attempts", total),
			zap.Duration("elapsed", elapsed),
		)
		return &Result{Nonce: nonce, Attempts: total, Elapsed: elapsed}, nil
	default:
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("no valid nonce found",
		zap.Uint64("attempts", total),
		zap.Duration("elapsed", elapsed),
	)
	return nil, fmt.Errorf("%w after %d attempts", ErrExhausted, total)
}

// report samples the attempt counter once per second and publishes the rate.
// Sampling happens off the worker goroutines so it never slows the search.
func (m *Miner) report(ctx context.Context, start time.Time, attempts *atomic.Uint64) {
	logger := logging.FromContext(ctx)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastTotal uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total := attempts.Load()
			elapsed := time.Since(start)
			rate := float64(total) / elapsed.Seconds()

			hashesPerSecond.Set(rate)
			attemptsMetric.Add(float64(total - lastTotal))
			lastTotal = total

			logger.Info("mining progress",
				zap.Uint64("attempts", total),
				zap.Duration("elapsed", elapsed),
				zap.Float64("rate", rate),
			)
			if m.onProgress != nil {
				m.onProgress(Progress{Attempts: total, Elapsed: elapsed, Rate: rate})
			}
		}
	}
}
