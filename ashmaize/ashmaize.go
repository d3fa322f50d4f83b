// Package ashmaize implements the memory-hard hash oracle consumed by the
// nonce search. A ROM is an expensive, read-only work memory derived once per
// challenge from the round's no_pre_mine seed; Sum is the cheap per-attempt
// digest over that memory. Both are pure functions of their inputs, which is
// the property the search loop and server-side verification depend on.
//
// The construction: an argon2id master key stretches the seed, sha256 counter
// blocks expand it into a pre-buffer, and a second pass fills the full ROM by
// chaining each block with pre-buffer words selected by the running state.
// Sum then performs a blake2b-512 walk whose read offsets depend on the
// evolving digest state, forcing every attempt through the ROM.
package ashmaize

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length of a Sum output in bytes.
const DigestSize = 64

const blockSize = sha256.Size

// Defaults agreed with the verifying server. NbLoops and NbInstrs must not
// vary within a round.
const (
	DefaultRomSize       = 1 << 30 // 1 GiB
	DefaultPreSize       = 16 << 20
	DefaultMixingNumbers = 4
	DefaultNbLoops       = 8
	DefaultNbInstrs      = 256
)

// argon2id parameters for the seed-stretching step.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

var romSalt = []byte("ashmaize.rom.v1")

var (
	ErrEmptySeed     = errors.New("rom seed is empty")
	ErrInvalidConfig = errors.New("invalid rom config")
)

// Config holds the work-memory sizing and the digest tuning constants.
type Config struct {
	RomSize       uint64
	PreSize       uint64
	MixingNumbers uint
	NbLoops       uint32
	NbInstrs      uint32
}

func DefaultConfig() Config {
	return Config{
		RomSize:       DefaultRomSize,
		PreSize:       DefaultPreSize,
		MixingNumbers: DefaultMixingNumbers,
		NbLoops:       DefaultNbLoops,
		NbInstrs:      DefaultNbInstrs,
	}
}

func (cfg *Config) validate() error {
	switch {
	case cfg.RomSize < 1024 || cfg.RomSize%blockSize != 0:
		return fmt.Errorf("%w: rom size must be a multiple of %d and at least 1 KiB", ErrInvalidConfig, blockSize)
	case cfg.PreSize < 64 || cfg.PreSize%blockSize != 0:
		return fmt.Errorf("%w: pre size must be a multiple of %d and at least 64 bytes", ErrInvalidConfig, blockSize)
	case cfg.PreSize > cfg.RomSize:
		return fmt.Errorf("%w: pre size exceeds rom size", ErrInvalidConfig)
	case cfg.MixingNumbers < 1 || cfg.MixingNumbers > 4:
		return fmt.Errorf("%w: mixing numbers must be between 1 and 4", ErrInvalidConfig)
	case cfg.NbLoops < 1 || cfg.NbInstrs < 1:
		return fmt.Errorf("%w: loop and instruction counts must be positive", ErrInvalidConfig)
	}
	return nil
}

// ROM is the per-round work memory. It is immutable after New and safe for
// concurrent use by any number of workers.
type ROM struct {
	data     []byte
	nbLoops  uint32
	nbInstrs uint32
}

// New builds the work memory for one round, seeded from the challenge's
// no_pre_mine value. It is expensive (proportional to cfg.RomSize) and must
// be called exactly once per challenge; reusing a ROM against a different
// challenge produces a search that cannot succeed.
//
// A construction error is fatal to the round and should be propagated
// without retry.
func New(seed []byte, cfg Config) (*ROM, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	master := argon2.IDKey(seed, romSalt, argonTime, argonMemory, argonThreads, DigestSize)

	// Step one: expand the master key to the pre-buffer in counter mode.
	pre := make([]byte, cfg.PreSize)
	var counter [8]byte
	h := sha256.New()
	for off := uint64(0); off < cfg.PreSize; off += blockSize {
		binary.LittleEndian.PutUint64(counter[:], off/blockSize)
		h.Reset()
		h.Write(master)
		h.Write(counter[:])
		copy(pre[off:], h.Sum(nil))
	}

	// Step two: fill the ROM by chaining each block with pre-buffer words
	// selected by the previous block.
	data := make([]byte, cfg.RomSize)
	state := sha256.Sum256(master)
	preWindow := cfg.PreSize - 8
	for off := uint64(0); off < cfg.RomSize; off += blockSize {
		h.Reset()
		h.Write(state[:])
		for m := uint(0); m < cfg.MixingNumbers; m++ {
			idx := binary.LittleEndian.Uint64(state[m*8:]) % preWindow
			h.Write(pre[idx : idx+8])
		}
		h.Sum(state[:0])
		copy(data[off:], state[:])
	}

	return &ROM{data: data, nbLoops: cfg.NbLoops, nbInstrs: cfg.NbInstrs}, nil
}

// Size returns the work-memory size in bytes.
func (r *ROM) Size() uint64 {
	return uint64(len(r.data))
}

// Sum digests a preimage against the work memory. It is a pure function of
// (preimage, ROM, loop count, instruction count): identical inputs always
// yield an identical digest.
func (r *ROM) Sum(preimage []byte) [DigestSize]byte {
	state := blake2b.Sum512(preimage)

	h, err := blake2b.New512(nil)
	if err != nil {
		// Keyless blake2b never fails to construct.
		panic(err)
	}

	window := uint64(len(r.data)) - 8
	for loop := uint32(0); loop < r.nbLoops; loop++ {
		h.Reset()
		h.Write(state[:])
		for i := uint32(0); i < r.nbInstrs; i++ {
			word := binary.LittleEndian.Uint64(state[(i%7)*8:])
			off := (word ^ uint64(i)*0x9e3779b97f4a7c15) % window
			h.Write(r.data[off : off+8])
		}
		h.Sum(state[:0])
	}
	return state
}
