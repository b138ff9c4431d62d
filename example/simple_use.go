package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/playback/internal/config"
	"github.com/leandrodaf/playback/internal/logger"
	"github.com/leandrodaf/playback/sdk/contracts"
	"github.com/leandrodaf/playback/sdk/playback"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	soundfont := flag.String("soundfont", "", "soundfont to load (overrides the configuration)")
	backend := flag.String("backend", "", "softsynth, coremidi, winmm, port or record")
	debug := flag.Bool("debug", false, "log loaded instruments and device latency")
	list := flag.Bool("list", false, "list the destinations of the backend and exit")
	finaleName := flag.String("finale", "Boo", "instrument that holds the closing note")
	flag.Parse()

	log := logger.NewStandardLogger()

	finale, err := contracts.ParseInstrument(*finaleName)
	if err != nil {
		log.Fatal("Invalid finale instrument", log.Field().Error("error", err))
	}

	opts := []contracts.Option{contracts.WithLogger(log)}
	if *configPath != "" {
		file, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("Failed to read configuration", log.Field().Error("error", err))
		}
		fileOpts, err := file.Options()
		if err != nil {
			log.Fatal("Failed to apply configuration", log.Field().Error("error", err))
		}
		opts = append(opts, fileOpts...)
	}
	if *soundfont != "" {
		opts = append(opts, contracts.WithSoundfontPath(*soundfont))
	}
	if *backend != "" {
		opts = append(opts, contracts.WithBackend(contracts.Backend(*backend)))
	}
	if *debug {
		opts = append(opts, contracts.WithDebug(true))
	}

	if *list {
		b := contracts.Backend(*backend)
		devices, err := playback.ListDevices(b)
		if err != nil {
			log.Fatal("Failed to list devices", log.Field().Error("error", err))
		}
		for i, d := range devices {
			fmt.Printf("%d: %s (%s)\n", i, d.Name, d.Manufacturer)
		}
		return
	}

	opts = append(opts, contracts.WithProgressHandler(func(stage contracts.LoadStage, progress float64) {
		fmt.Printf("\r%-20s %3.0f%%", stage, progress*100)
	}))

	engine, err := playback.NewEngine(opts...)
	if err != nil {
		log.Fatal("Failed to initialize playback engine", log.Field().Error("error", err))
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine.Start(ctx)
	if err := engine.Wait(ctx); err != nil {
		fmt.Println()
		engine.Close()
		log.Fatal("Soundfont could not be loaded", log.Field().Error("error", err))
	}
	fmt.Println()

	transport := engine.Transport()
	transport.SetState(contracts.Playing)
	beat := time.Duration(float64(time.Minute) / transport.Tempo())

	phrase := []struct {
		pitch      int
		accidental int
		inst       contracts.Instrument
	}{
		{60, 0, contracts.Mario}, {64, 0, contracts.Mushroom}, {67, 0, contracts.Yoshi},
		{65, 1, contracts.Star}, {72, 0, contracts.Flower}, {67, 0, contracts.Gameboy},
	}
	for _, n := range phrase {
		select {
		case <-ctx.Done():
			engine.StopAll()
			return
		default:
		}
		engine.PlaySound(n.pitch, n.inst, n.accidental)
		time.Sleep(beat)
		engine.StopSound(n.pitch, n.inst, n.accidental)
	}
	engine.PlayNote(contracts.Note{PitchIndex: 48}, finale)
	time.Sleep(4 * beat)
	engine.StopAll()
	transport.ResetState()
}
