// cmd/fms/main.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// fms hosts the flight-plan engine outside of a full simulator: it either
// serves the authoritative flight-plan store over TCP or runs the engine
// against a store (in-process or remote), pumping it at a fixed rate and
// logging the events it emits. Useful for poking at the store protocol
// and for soak-testing the sync machinery.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/fms"
	"github.com/avsim/fms/log"
	"github.com/avsim/fms/math"
	"github.com/avsim/fms/store"
	"github.com/avsim/fms/util"

	"github.com/peterbourgon/ff"
	"golang.org/x/sync/errgroup"
)

func main() {
	fs := flag.NewFlagSet("fms", flag.ExitOnError)
	var (
		navdata   = fs.String("navdata", "navdata.zst", "navigation database snapshot")
		serveAddr = fs.String("serve", "", "serve the flight-plan store on this address and exit on signal")
		connect   = fs.String("connect", "", "connect the engine to a store served at this address")
		logLevel  = fs.String("loglevel", "info", "log level: debug, info, warn, error")
		logDir    = fs.String("logdir", "", "log directory (default: user config dir)")
		rate      = fs.Int("rate", 60, "engine update rate in Hz")
		lat       = fs.Float64("lat", 40, "initial latitude")
		lon       = fs.Float64("lon", -74, "initial longitude")
		gs        = fs.Float64("groundspeed", 450, "reported groundspeed in knots")
	)
	// Flags may also come from the environment, e.g. FMS_NAVDATA.
	ff.Parse(fs, os.Args[1:], ff.WithEnvVarNoPrefix())

	lg := log.New(*logLevel, *logDir)

	var e util.ErrorLogger
	db, err := aviation.LoadDatabase(*navdata, &e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *navdata, err)
		os.Exit(1)
	}
	if e.HaveErrors() {
		e.PrintErrors(lg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveAddr != "" {
		if err := serveStore(ctx, *serveAddr, db, lg); err != nil {
			lg.Errorf("serve: %v", err)
			os.Exit(1)
		}
		return
	}

	var st store.Store
	if *connect != "" {
		rpc, err := store.Dial(*connect, lg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *connect, err)
			os.Exit(1)
		}
		st = rpc
	} else {
		st = store.NewSim(db, lg)
	}

	src := &fixedSituation{
		position:    math.MakePoint2LL(float32(*lat), float32(*lon)),
		groundSpeed: float32(*gs),
	}
	if err := runEngine(ctx, st, db, src, *rate, lg); err != nil {
		lg.Errorf("engine: %v", err)
		os.Exit(1)
	}
}

// serveStore runs the store server until the context is cancelled.
func serveStore(ctx context.Context, addr string, db *aviation.Database, lg *log.Logger) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	sim := store.NewSim(db, lg)

	var eg errgroup.Group
	eg.Go(func() error {
		<-ctx.Done()
		return l.Close()
	})
	eg.Go(func() error {
		err := store.Serve(l, sim, lg)
		if ctx.Err() != nil {
			return nil // closed by the shutdown goroutine
		}
		return err
	})
	return eg.Wait()
}

// runEngine pumps the engine at the requested rate, draining its events
// to the log, until the context is cancelled.
func runEngine(ctx context.Context, st store.Store, db *aviation.Database, src fms.PositionSource,
	rate int, lg *log.Logger) error {
	es := fms.NewEventStream(lg)
	sub := es.Subscribe()
	defer sub.Unsubscribe()

	eng := fms.New(st, db, src, es, lg)

	ticker := time.NewTicker(time.Second / time.Duration(max(rate, 1)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			eng.Update(now)
			for _, ev := range sub.Get() {
				lg.Info("engine event", slog.Any("event", ev))
			}
		}
	}
}

// fixedSituation reports a constant position and groundspeed; the time of
// day is live.
type fixedSituation struct {
	position    math.Point2LL
	groundSpeed float32
}

func (f *fixedSituation) Situation() fms.Situation {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return fms.Situation{
		Position:    f.position,
		GroundSpeed: f.groundSpeed,
		UTCSeconds:  now.Sub(midnight).Seconds(),
	}
}
