// Command streetslim-profile manages the profile store outside of a run:
// list, create, set-default, and delete, operating directly on a
// profile.Store the same way Fast-MBTiler's tools/main.go was a
// secondary CLI alongside the main downloader.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/csnight/streetslim/internal/config"
	"github.com/csnight/streetslim/internal/profile"
)

var cf string

func init() {
	flag.StringVar(&cf, "c", "conf.toml", "set config `file`")
}

func usage() {
	fmt.Fprintf(os.Stderr, `streetslim-profile: manage layer-keep profiles
Usage:
  streetslim-profile [-c filename] list
  streetslim-profile [-c filename] create <name> <layer1,layer2,...>
  streetslim-profile [-c filename] set-default <id>
  streetslim-profile [-c filename] delete <id>
`)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(cf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	store, err := openProfileStore(cfg)
	if err != nil {
		log.Fatalf("open profile store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureValidDefault(); err != nil {
		log.Fatalf("ensure_valid_default: %v", err)
	}

	switch args[0] {
	case "list":
		runList(store)
	case "create":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		runCreate(store, args[1], args[2])
	case "set-default":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		runSetDefault(store, args[1])
	case "delete":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		runDelete(store, args[1])
	default:
		usage()
		os.Exit(2)
	}
}

func openProfileStore(cfg *config.Config) (profile.Store, error) {
	switch cfg.ProfileBackend {
	case "mysql":
		return profile.NewMySQLStore(cfg.ProfileDSN)
	default:
		return profile.NewSQLiteStore(cfg.ProfileDSN)
	}
}

func runList(store profile.Store) {
	profiles, err := store.List()
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	for _, p := range profiles {
		marker := " "
		if p.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s\t(%d layers)\n", marker, p.ID, p.Name, len(p.LayersToKeep))
	}
}

func runCreate(store profile.Store, name, layersCSV string) {
	keep := map[string]struct{}{}
	for _, l := range strings.Split(layersCSV, ",") {
		l = strings.TrimSpace(l)
		if l != "" {
			keep[l] = struct{}{}
		}
	}

	p := profile.Profile{ID: newProfileID(), Name: name, LayersToKeep: keep}
	if err := store.Insert(p); err != nil {
		log.Fatalf("create: %v", err)
	}
	fmt.Println(p.ID)
}

func runSetDefault(store profile.Store, id string) {
	if err := store.SetDefault(id); err != nil {
		log.Fatalf("set-default: %v", err)
	}
}

func runDelete(store profile.Store, id string) {
	if err := store.Delete(id); err != nil {
		log.Fatalf("delete: %v", err)
	}
}

func newProfileID() string { return uuid.NewString() }
