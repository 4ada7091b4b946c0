package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/text/language"

	"github.com/xtding233/gacha-simulator/internal/logging"
	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/report"
	"github.com/xtding233/gacha-simulator/internal/simulator"
)

var (
	configDir   = flag.String("config", "./config", "directory holding profiles/default.yaml")
	profileName = flag.String("profile", profile.DefaultName, "profile to layer over default.yaml")
	mode        = flag.String("mode", "draw", "simulation mode: draw | synth | batch-draw | batch-synth")

	count = flag.Int("count", 0, "draws or synthesis attempts per run (0 keeps the profile value)")
	pity  = flag.Int("pity", 0, "pity limit or synthesis pity threshold (0 keeps the profile value)")
	start = flag.String("start", "", "synthesis start grade (empty keeps the profile value)")
	seed  = flag.Uint64("seed", 0, "random seed; 0 uses a crypto-backed source")
	runs  = flag.Int("runs", 1000, "runs per batch")

	lang     = flag.String("lang", "en", "locale for number grouping, e.g. en or ko")
	logLevel = flag.String("log.level", "warn", "log level (trace debug info warn error critical off)")
	quiet    = flag.Bool("quiet", false, "omit the per-trial log")

	log = logging.For("gachasim")
)

func main() {
	flag.Parse()
	if err := logging.Setup(*logLevel, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	tag, err := language.Parse(*lang)
	if err != nil {
		log.WithError(err).Fatal("invalid -lang")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := simulator.NewService(profile.NewLoader(*configDir, logging.For("profile")), simulator.Options{
		BatchWorkers: 4,
		Logger:       logging.For("simulator"),
	})
	r := report.NewRenderer(os.Stdout, tag)
	r.Quiet = *quiet

	if err := run(ctx, svc, r, buildRequest()); err != nil {
		log.WithError(err).Fatal("simulation failed")
	}
}

func buildRequest() simulator.Request {
	req := simulator.Request{Profile: *profileName}
	if *seed != 0 {
		req.Seed = seed
	}
	synth := *mode == "synth" || *mode == "batch-synth"
	if *count > 0 {
		if synth {
			req.Overrides.Attempts = count
		} else {
			req.Overrides.DrawCount = count
		}
	}
	if *pity > 0 {
		if synth {
			req.Overrides.SynthesisPity = pity
		} else {
			req.Overrides.PityLimit = pity
		}
	}
	if *start != "" {
		req.Overrides.StartGrade = start
	}
	return req
}

func run(ctx context.Context, svc *simulator.Service, r *report.Renderer, req simulator.Request) error {
	switch *mode {
	case "draw":
		rep, err := svc.RunDraws(ctx, req)
		if err != nil {
			return err
		}
		return r.Draws(rep)
	case "synth":
		rep, err := svc.RunSynthesis(ctx, req)
		if err != nil {
			return err
		}
		return r.Synthesis(rep)
	case "batch-draw":
		rep, err := svc.RunDrawBatch(ctx, simulator.BatchRequest{Request: req, Runs: *runs})
		if err != nil {
			return err
		}
		return r.Batch(rep)
	case "batch-synth":
		rep, err := svc.RunSynthesisBatch(ctx, simulator.BatchRequest{Request: req, Runs: *runs})
		if err != nil {
			return err
		}
		return r.Batch(rep)
	default:
		return fmt.Errorf("unknown -mode %q", *mode)
	}
}
