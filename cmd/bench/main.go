// Benchmarks the hash oracle: work-memory construction time and sustained
// hash rate, using the same preimage shape the search produces.
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/hieunv6/scavenger-miner/ashmaize"
	"github.com/hieunv6/scavenger-miner/shared"
)

type options struct {
	RomSize  uint64 `long:"rom-size" default:"67108864" description:"Work-memory size in bytes"`
	PreSize  uint64 `long:"pre-size" default:"1048576" description:"Pre-buffer size in bytes"`
	NbLoops  uint32 `long:"loops" default:"8" description:"Digest loop count"`
	NbInstrs uint32 `long:"instructions" default:"256" description:"Digest instructions per loop"`
	Hashes   uint64 `short:"n" long:"hashes" default:"10000" description:"Number of hashes to time"`
	CPU      string `long:"cpuprofile" description:"Write CPU profile to the specified file"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		log.Fatal("no entropy: ", err)
	}

	cfg := ashmaize.Config{
		RomSize:       opts.RomSize,
		PreSize:       opts.PreSize,
		MixingNumbers: ashmaize.DefaultMixingNumbers,
		NbLoops:       opts.NbLoops,
		NbInstrs:      opts.NbInstrs,
	}

	fmt.Printf("building %d MiB work memory...\n", opts.RomSize/1024/1024)
	start := time.Now()
	rom, err := ashmaize.New(seed, cfg)
	if err != nil {
		log.Fatal("building work memory: ", err)
	}
	fmt.Printf("work memory ready in %.2fs\n", time.Since(start).Seconds())

	ch := shared.Challenge{
		ChallengeID:      "bench",
		Difficulty:       "00000000",
		NoPreMine:        string(seed),
		LatestSubmission: "bench",
		NoPreMineHour:    "bench",
	}

	fmt.Printf("hashing %d preimages...\n", opts.Hashes)
	start = time.Now()
	for i := uint64(0); i < opts.Hashes; i++ {
		rom.Sum(shared.EncodePreimage(shared.NonceText(i), "bench-address", ch))
	}
	elapsed := time.Since(start)

	fmt.Printf("%d hashes in %.2fs: %.0f H/s\n",
		opts.Hashes, elapsed.Seconds(), float64(opts.Hashes)/elapsed.Seconds())
}
