// Command sparselife runs the sparse Game of Life engine against an RLE
// pattern, rendering to a terminal and optionally mirroring status to
// WebSocket subscribers.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sandeepkv93/sparselife/life"
	"github.com/sandeepkv93/sparselife/rle"
	"github.com/sandeepkv93/sparselife/statusfeed"
	"github.com/sandeepkv93/sparselife/term"
)

var cliConfig = &struct {
	patternFile   string
	threads       uint
	staticSize    uint
	chunkSize     uint
	numChunks     uint
	origin        uint
	displayStride uint
	width, height int
	feedAddr      string
	enableFeed    bool
}{
	patternFile:   "",
	threads:       4,
	staticSize:    4,
	chunkSize:     1000,
	numChunks:     64,
	origin:        1 << 30,
	displayStride: 1,
	width:         120,
	height:        40,
	feedAddr:      ":8089",
	enableFeed:    false,
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	flag.StringVar(&cliConfig.patternFile, "pattern", cliConfig.patternFile, "path to an RLE pattern file")
	flag.UintVar(&cliConfig.threads, "threads", cliConfig.threads, "worker count N")
	flag.UintVar(&cliConfig.staticSize, "static-size", cliConfig.staticSize, "tile edge length, must be a power of two")
	flag.UintVar(&cliConfig.chunkSize, "chunk-size", cliConfig.chunkSize, "phase F round-robin block size")
	flag.UintVar(&cliConfig.numChunks, "num-chunks", cliConfig.numChunks, "initial arena/alive capacity in multiples of chunk-size")
	flag.UintVar(&cliConfig.origin, "origin", cliConfig.origin, "world anchor for the pattern")
	flag.UintVar(&cliConfig.displayStride, "display-stride", cliConfig.displayStride, "initial display generation stride 2^s")
	flag.IntVar(&cliConfig.width, "width", cliConfig.width, "terminal screen width")
	flag.IntVar(&cliConfig.height, "height", cliConfig.height, "terminal screen height")
	flag.StringVar(&cliConfig.feedAddr, "feed-addr", cliConfig.feedAddr, "HTTP listen address for the status feed")
	flag.BoolVar(&cliConfig.enableFeed, "feed", cliConfig.enableFeed, "enable the WebSocket status feed")
	flag.Parse()

	if cliConfig.patternFile == "" {
		log.Fatal().Msg("sparselife: -pattern is required")
	}

	cfg := life.Config{
		Threads:       uint32(cliConfig.threads),
		StaticSize:    uint32(cliConfig.staticSize),
		ChunkSize:     uint32(cliConfig.chunkSize),
		NumChunks:     uint32(cliConfig.numChunks),
		Origin:        uint32(cliConfig.origin),
		DisplayStride: uint32(cliConfig.displayStride),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("sparselife: invalid configuration")
	}

	pattern, err := os.ReadFile(cliConfig.patternFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cliConfig.patternFile).Msg("sparselife: reading pattern file")
	}

	engine, err := life.NewEngine(cfg, cliConfig.width, cliConfig.height)
	if err != nil {
		log.Fatal().Err(err).Msg("sparselife: building engine")
	}
	defer engine.Stop()

	if err := rle.Decode(engine, pattern, cfg.Origin); err != nil {
		log.Fatal().Err(err).Msg("sparselife: decoding pattern")
	}

	ui, err := term.New(engine)
	if err != nil {
		log.Fatal().Err(err).Msg("sparselife: initializing terminal")
	}
	defer ui.Close()

	var feed *statusfeed.Feed
	if cliConfig.enableFeed {
		feedCfg := statusfeed.DefaultConfig()
		feedCfg.HTTPAddr = cliConfig.feedAddr
		feed = statusfeed.New(feedCfg)
		feed.Start()
		defer feed.Stop()
		log.Info().Str("addr", cliConfig.feedAddr).Msg("sparselife: status feed listening")
	}

	rendererStop := make(chan struct{})
	go ui.RunRenderer(rendererStop)
	defer close(rendererStop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	log.Info().Uint("threads", cliConfig.threads).Str("pattern", cliConfig.patternFile).Msg("sparselife: starting")

	inputQuit := make(chan struct{})
	go func() {
		for {
			if ui.PollAndHandle() {
				close(inputQuit)
				return
			}
		}
	}()

	interval := rateInterval(engine.Tracker().Rate)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	var genCount int
	rateWindowStart := time.Now()
	windowCapped := true

	for {
		select {
		case <-sig:
			log.Info().Msg("sparselife: signal received, shutting down")
			return
		case <-inputQuit:
			log.Info().Msg("sparselife: quit requested, shutting down")
			return
		case <-timer.C:
			stepStart := time.Now()
			engine.Step(nil)
			stepElapsed := time.Since(stepStart)
			genCount++

			// A step that takes as long as (or longer than) the paced
			// interval means the engine, not the rate cap, is setting
			// the pace this tick — the cap isn't binding.
			if stepElapsed >= interval {
				windowCapped = false
			}

			if elapsed := time.Since(rateWindowStart); elapsed >= time.Second {
				engine.SetRateStats(genCount, windowCapped)
				genCount = 0
				windowCapped = true
				rateWindowStart = time.Now()
			}

			if feed != nil {
				feed.Publish(statusfeed.StatusUpdate{
					Generation: engine.Generation(),
					Population: engine.Population(),
					Births:     engine.Births(),
					Deaths:     engine.Deaths(),
					Status:     engine.StatusLine(),
					Rows:       engine.ScreenRows(),
				})
			}

			interval = rateInterval(engine.Tracker().Rate)
			timer.Reset(interval)
		}
	}
}

// rateInterval derives the generation-pacing interval from the
// autotracking accumulator's rate cap (gen/s, clamped to [1, 16384] by
// the `<`/`>` keys), implementing spec.md §4.I's SLEEP(delay) state.
func rateInterval(genPerSecond int) time.Duration {
	if genPerSecond < 1 {
		genPerSecond = 1
	}
	return time.Second / time.Duration(genPerSecond)
}
