// Package main is the entry point for the dx7syx API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/james-see/dx7syx/pkg/api"
	"github.com/james-see/dx7syx/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "Server port (overrides the config file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("loading config", "err", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	staccato, err := cfg.StaccatoParameters()
	if err != nil {
		log.Fatal("loading config", "err", err)
	}

	fmt.Printf("Starting dx7syx API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)

	if err := api.StartServer(api.Options{
		Port:            cfg.Server.Port,
		Limit:           cfg.Limit,
		LenientChecksum: cfg.LenientChecksum,
		Staccato:        staccato,
		Logger:          log.Default(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
