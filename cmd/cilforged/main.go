package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/cilforge/cilforge/internal/config"
	"github.com/cilforge/cilforge/internal/conn"
	"github.com/cilforge/cilforge/internal/view"
	"github.com/cilforge/cilforge/pkg"
)

func main() {
	config_path := flag.String("config", "cilforge.yml", "path to config file")
	metadata_path := flag.String("file", "", "metadata blob to load (overrides config)")
	listen := flag.String("listen", "", "listen address (overrides config)")

	flag.Parse()

	cfg, err := config.Load(*config_path)
	if err != nil {
		pkg.FatalLog(err)
	}
	if *metadata_path != "" {
		cfg.MetadataPath = *metadata_path
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	pkg.SetLogLevel(cfg.PkgLogLevel())

	if cfg.MetadataPath == "" {
		pkg.FatalLog("no metadata blob given; set -file or metadata_path")
	}
	data, err := os.ReadFile(cfg.MetadataPath)
	if err != nil {
		pkg.FatalLog("reading metadata blob", err)
	}
	assembly, err := view.ParseAssembly(data)
	if err != nil {
		pkg.FatalLog("parsing metadata blob", err)
	}
	pkg.InfoLog("loaded", cfg.MetadataPath, "version", assembly.Root.Version)

	s := &server{
		session:     conn.NewSession(assembly),
		output_path: cfg.OutputPath,
	}

	pkg.InfoLog("listening on", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, s.createRouter()); err != nil {
		pkg.FatalLog(err)
	}
}
