package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/config"
)

func defaultOutputFile(input, plotJoint string) string {
	ext := filepath.Ext(input)
	base := input[0 : len(input)-len(ext)]
	if plotJoint != "" {
		return base + "_" + plotJoint + ".png"
	}
	return base + ".glb"
}

func printInfo(m *bvh.Motion) {
	log.Printf("frames: %d, frame time: %gs, duration: %gs, channels: %d",
		m.FrameCount(), m.FrameTime, m.Duration(), m.Skeleton.ChannelCount())
	for _, j := range m.Skeleton.Joints() {
		var channels []string
		for _, c := range j.Channels {
			channels = append(channels, c.String())
		}
		log.Printf("%s%s [%s]", strings.Repeat("  ", m.Skeleton.Depth(j)), j.Name, strings.Join(channels, " "))
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.bvh [output.(glb|gltf|csv|bvh|png|webp)]\n", os.Args[0])
		flag.PrintDefaults()
	}
	scale := flag.Float64("scale", 0, "scale offsets and positions (0: config)")
	frame := flag.Int("frame", 0, "frame index for image output")
	yaw := flag.Float64("yaw", 0, "camera yaw in degrees for image output")
	endSites := flag.Bool("endsites", false, "export End Site nodes/columns")
	confFile := flag.String("config", "", "YAML config file")
	plotJoint := flag.String("plot", "", "plot channels of this joint instead of converting")
	info := flag.Bool("info", false, "print hierarchy summary")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	output := defaultOutputFile(input, *plotJoint)
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}

	conf, err := config.LoadOrDefault(*confFile)
	if err != nil {
		log.Fatal(err)
	}
	conf.Resolve(config.Flags{Scale: *scale, Yaw: *yaw})
	if *endSites {
		conf.EndSites = true
	}

	log.Println("Loading:", input)
	m, err := bvh.Load(input)
	if err != nil {
		log.Fatal(err)
	}
	if conf.Scale != 1 {
		m = m.Scaled(conf.Scale)
	}

	if *info {
		printInfo(m)
		return
	}

	log.Println("Writing:", output)
	if *plotJoint != "" {
		err = savePlot(m, *plotJoint, output)
	} else {
		err = saveMotion(m, output, *frame, &conf)
	}
	if err != nil {
		log.Fatal(err)
	}
}
