package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/pdf-lab/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("pdf-lab", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", config.BaseConfigFile, "path to the base configuration file")
	env := flags.StringP("env", "e", "", "configuration overlay to apply (sets "+config.EnvServiceEnv+")")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *env != "" {
		os.Setenv(config.EnvServiceEnv, *env)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config load failed: ", err)
	}
	if err := cfg.Finalize(); err != nil {
		log.Fatal("config finalize failed: ", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatal("service init failed: ", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatal("service start failed: ", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	if err := srv.Shutdown(cfg.Server.ShutdownTimeoutDuration()); err != nil {
		log.Fatal("shutdown failed: ", err)
	}

	log.Println("service stopped gracefully")
}
