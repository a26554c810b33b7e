// Command streetslim runs the MBTiles layer-slimming pipeline once: stage
// the source archive, drop unwanted layers, filter streets features, and
// publish the result, the way Fast-MBTiler's main.go drove a single
// Download() pass over a flag/config-selected job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	_ "github.com/shaxbee/go-spatialite"

	"github.com/csnight/streetslim/internal/checkpoint"
	"github.com/csnight/streetslim/internal/config"
	"github.com/csnight/streetslim/internal/driver"
	"github.com/csnight/streetslim/internal/logging"
	"github.com/csnight/streetslim/internal/metrics"
	"github.com/csnight/streetslim/internal/profile"
	"github.com/csnight/streetslim/internal/progress"
)

var (
	hf bool
	cf string
	in string
	out string
	pf string
	runID string
)

func init() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&cf, "c", "conf.toml", "set config `file`")
	flag.StringVar(&in, "i", "", "input MBTiles `file`")
	flag.StringVar(&out, "o", "", "output MBTiles `file`")
	flag.StringVar(&pf, "p", "", "profile `id` to apply (defaults to the store's default profile)")
	flag.StringVar(&runID, "r", "", "resume `run-id` (requires redis.addr configured)")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, `streetslim version: streetslim/1.0
Usage: streetslim [-h] [-c filename] -i input.mbtiles -o output.mbtiles [-p profile-id] [-r run-id]
`)
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	if hf {
		flag.Usage()
		return
	}
	if in == "" || out == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(cf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogFile, log.InfoLevel)

	store, err := openProfileStore(cfg)
	if err != nil {
		log.Fatalf("open profile store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureValidDefault(); err != nil {
		log.Fatalf("ensure_valid_default: %v", err)
	}

	prof, err := selectProfile(store, pf)
	if err != nil {
		log.Fatalf("select profile: %v", err)
	}
	log.WithFields(log.Fields{"profile": prof.Name, "layers_kept": len(prof.LayersToKeep)}).Info("using profile")

	var cp *checkpoint.Store
	if cfg.RedisAddr != "" {
		pool := checkpoint.NewPool(cfg.RedisAddr)
		defer pool.Close()
		cp = checkpoint.New(pool)
	}

	mtr := metrics.New()

	bar := progress.NewConsoleBar(cfg.AppTitle)
	var sink progress.Sink = bar

	var status *progress.StatusServer
	if cfg.StatusListen != "" {
		status = progress.NewStatusServer(cfg.StatusListen, mtr)
		status.Start()
		defer status.Stop()
		sink = multiSink{bar, status}
	}

	d := driver.New(driver.Config{
		Workers:       cfg.Workers,
		BatchSize:     cfg.BatchSize,
		SQLDriverName: cfg.SQLDriverName,
	}, cp, mtr)

	start := time.Now()
	summary, err := d.Process(context.Background(), runID, in, out, prof.LayersToKeep, sink)
	bar.Finish()
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	fmt.Printf(
		"\n%.3fs finished: processed=%d modified=%d decode_failures=%d\n",
		time.Since(start).Seconds(), summary.Processed, summary.Modified, summary.DecodeFailures,
	)
}

func openProfileStore(cfg *config.Config) (profile.Store, error) {
	switch cfg.ProfileBackend {
	case "mysql":
		return profile.NewMySQLStore(cfg.ProfileDSN)
	default:
		return profile.NewSQLiteStore(cfg.ProfileDSN)
	}
}

func selectProfile(store profile.Store, id string) (profile.Profile, error) {
	if id != "" {
		return store.Get(id)
	}
	return store.GetDefault()
}

// multiSink fans one progress fraction out to several sinks, mirroring
// io.MultiWriter's shape for the same "same stream to several places"
// need.
type multiSink []progress.Sink

func (m multiSink) Report(fraction float64) {
	for _, s := range m {
		s.Report(fraction)
	}
}
