package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/config"
	"github.com/binzume/bvhkit/player"
	"github.com/gdamore/tcell/v2"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.bvh\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Keys: space pause, +/- speed, l loop, r rotate, left/right step, q quit")
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "YAML config file")
	fps := flag.Int("fps", 0, "redraw rate (default 30)")
	rotate := flag.Bool("rotate", false, "start with auto-rotation")
	pitch := flag.Float64("pitch", 0, "camera pitch in degrees")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)

	conf, err := config.LoadOrDefault(*confFile)
	if err != nil {
		log.Fatal(err)
	}
	conf.Resolve(config.Flags{FPS: *fps})

	m, err := bvh.Load(input)
	if err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}

	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	p := player.New(screen, m, player.Options{
		Name:       name,
		FPS:        conf.Player.FPS,
		Speed:      conf.Player.Speed,
		Loop:       conf.Player.Loop,
		AutoRotate: conf.Player.AutoRotate || *rotate,
		Pitch:      *pitch,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = p.Run(ctx)
	stop()
	screen.Fini()
	if err != nil {
		log.Fatal(err)
	}
}
