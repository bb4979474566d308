// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/wsmirror-sim/main.go
// Summary: Compositor simulator daemon for developing against wsmirror
// without a running compositor.
// Usage: wsmirror-sim -socket /tmp/wsmirror.sock -scene default -tick 2s

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/wsmirror/wsmirror/config"
	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/sim"
)

func main() {
	socketPath := flag.String("socket", "", "Unix socket path (overrides config)")
	sceneName := flag.String("scene", "default", "Scene to play: "+strings.Join(sim.SceneNames(), ", "))
	tick := flag.Duration("tick", 2*time.Second, "Interval between scripted scene steps")
	configPath := flag.String("config", config.DefaultPath(), "Config file path")
	cpuProfile := flag.String("pprof-cpu", "", "Write CPU profile to file")
	memProfile := flag.String("pprof-mem", "", "Write heap profile to file on exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.LogLevel)

	socket := cfg.Socket
	if *socketPath != "" {
		socket = *socketPath
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create CPU profile: %v\n", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	scene, steps, err := sim.LoadScene(*sceneName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	player := sim.NewPlayer(scene, steps, *tick)
	srv := sim.NewServer(socket, player)
	srv.SetObserver(sim.NewBroadcastLogger())

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start simulator: %v\n", err)
		os.Exit(1)
	}
	player.Start(srv)

	fmt.Printf("wsmirror-sim playing scene %q on %s\n", *sceneName, socket)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	player.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create heap profile: %v\n", err)
		} else {
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write heap profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	fmt.Println("Simulator stopped")
}
