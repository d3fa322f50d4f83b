// Package app wires the mining rounds together: it fetches a challenge,
// builds the round's work memory, runs the nonce search and reports the
// winning nonce back to the service.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/hieunv6/scavenger-miner/ashmaize"
	"github.com/hieunv6/scavenger-miner/client"
	"github.com/hieunv6/scavenger-miner/logging"
	"github.com/hieunv6/scavenger-miner/miner"
	"github.com/hieunv6/scavenger-miner/shared"
	"github.com/hieunv6/scavenger-miner/wallet"
)

//go:generate mockgen -package mocks -destination mocks/api.go . API

// API is the slice of the scavenger HTTP service the app depends on.
type API interface {
	Terms(ctx context.Context) (*client.Terms, error)
	Register(ctx context.Context, address, signature, pubkey string) (*client.RegistrationReceipt, error)
	Challenge(ctx context.Context) (*client.ChallengeEnvelope, error)
	SubmitSolution(ctx context.Context, address, challengeID, nonce string) (*client.CryptoReceipt, error)
	StarRates(ctx context.Context) ([]uint64, error)
}

// RomBuilder constructs the round's work memory from the challenge seed.
// Building is expensive and must happen exactly once per round; the result
// is shared read-only by all search workers of that round.
type RomBuilder func(seed []byte) (miner.Hasher, error)

// Tracks recently attempted rounds in watch mode so a still-open challenge
// is not mined twice.
const seenRounds = 128

type App struct {
	api     API
	signer  wallet.Signer
	address string

	maxIterations uint64
	workers       int
	newROM        RomBuilder
	minerOpts     []miner.Opt

	seen *lru.Cache
}

type Opt func(*App)

// WithMaxIterations bounds the attempt budget per round.
func WithMaxIterations(n uint64) Opt {
	return func(a *App) { a.maxIterations = n }
}

// WithWorkers sets the number of search workers per round.
func WithWorkers(n int) Opt {
	return func(a *App) { a.workers = n }
}

// WithRomBuilder overrides the work-memory construction. Tests use it to
// substitute a stub oracle.
func WithRomBuilder(b RomBuilder) Opt {
	return func(a *App) { a.newROM = b }
}

// WithMinerOptions passes additional options to each round's search.
func WithMinerOptions(opts ...miner.Opt) Opt {
	return func(a *App) { a.minerOpts = opts }
}

func New(api API, signer wallet.Signer, address string, opts ...Opt) (*App, error) {
	if address == "" {
		return nil, errors.New("miner address is required")
	}

	seen, err := lru.New(seenRounds)
	if err != nil {
		return nil, fmt.Errorf("creating round cache: %w", err)
	}

	a := &App{
		api:           api,
		signer:        signer,
		address:       address,
		maxIterations: 100_000,
		workers:       runtime.NumCPU(),
		seen:          seen,
		newROM: func(seed []byte) (miner.Hasher, error) {
			return ashmaize.New(seed, ashmaize.DefaultConfig())
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Register fetches the terms, collects a wallet signature over the terms
// message and registers the address.
func (a *App) Register(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	terms, err := a.api.Terms(ctx)
	if err != nil {
		return err
	}
	logger.Info("fetched terms", zap.String("version", terms.Version))

	sig, err := a.signer.Sign(ctx, terms.Message)
	if err != nil {
		return fmt.Errorf("collecting wallet signature: %w", err)
	}

	receipt, err := a.api.Register(ctx, a.address, sig.Signature, sig.PubKey)
	if err != nil {
		return err
	}
	if receipt != nil {
		logger.Info("registration successful", zap.String("timestamp", receipt.Timestamp))
	} else {
		logger.Info("registration completed")
	}
	return nil
}

// Run mines a single round: fetch the challenge, build the work memory,
// search, submit. Returns miner.ErrExhausted when the attempt budget runs
// out; that is an expected outcome, not a failure.
func (a *App) Run(ctx context.Context) error {
	envelope, err := a.api.Challenge(ctx)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("challenge received",
		zap.String("challenge_id", envelope.Challenge.ChallengeID),
		zap.Uint32("day", envelope.Challenge.Day),
		zap.Uint32("challenge_number", envelope.Challenge.ChallengeNumber),
		zap.String("difficulty", envelope.Challenge.Difficulty),
		zap.String("mining_period_ends", envelope.MiningPeriodEnds),
	)

	return a.mineRound(ctx, envelope.Challenge)
}

// Watch keeps polling for challenges, mining each round at most once. Budget
// exhaustion moves on to the next poll; any other error aborts the watch.
func (a *App) Watch(ctx context.Context, interval time.Duration) error {
	logger := logging.FromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		envelope, err := a.api.Challenge(ctx)
		switch {
		case err != nil:
			logger.Warn("fetching challenge failed", zap.Error(err))
		case a.seen.Contains(envelope.Challenge.ChallengeID):
			logger.Debug("round already attempted",
				zap.String("challenge_id", envelope.Challenge.ChallengeID))
		default:
			a.seen.Add(envelope.Challenge.ChallengeID, struct{}{})
			if err := a.mineRound(ctx, envelope.Challenge); err != nil && !errors.Is(err, miner.ErrExhausted) {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *App) mineRound(ctx context.Context, ch shared.Challenge) error {
	logger := logging.FromContext(ctx)

	if err := ch.Validate(); err != nil {
		return fmt.Errorf("invalid challenge: %w", err)
	}

	// The work memory is rebuilt from each round's seed. Reusing a stale one
	// against a new challenge silently produces a search that cannot succeed.
	buildStart := time.Now()
	hasher, err := a.newROM([]byte(ch.NoPreMine))
	if err != nil {
		return fmt.Errorf("building work memory: %w", err)
	}
	logger.Info("work memory ready", zap.Duration("took", time.Since(buildStart)))

	opts := append([]miner.Opt{miner.WithWorkers(a.workers)}, a.minerOpts...)
	result, err := miner.New(hasher, a.maxIterations, opts...).Mine(ctx, ch, a.address)
	if err != nil {
		return err
	}

	receipt, err := a.api.SubmitSolution(ctx, a.address, ch.ChallengeID, result.Nonce)
	if err != nil {
		return fmt.Errorf("submitting nonce %s: %w", result.Nonce, err)
	}
	if receipt == nil {
		logger.Warn("solution submitted but not acknowledged", zap.String("nonce", result.Nonce))
		return nil
	}
	logger.Info("solution accepted",
		zap.String("nonce", result.Nonce),
		zap.String("timestamp", receipt.Timestamp),
	)

	a.logReward(ctx, ch.Day)
	return nil
}

// logReward looks up the day-indexed reward table. Advisory only; failures
// are logged and ignored.
func (a *App) logReward(ctx context.Context, day uint32) {
	logger := logging.FromContext(ctx)

	rates, err := a.api.StarRates(ctx)
	if err != nil {
		logger.Warn("fetching star rates failed", zap.Error(err))
		return
	}
	if day == 0 || int(day) > len(rates) {
		return
	}
	logger.Info("round reward", zap.Uint32("day", day), zap.Uint64("star_tokens", rates[day-1]))
}
