package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"spine"
)

func main() {
	skelPath := flag.String("skel", "res/spineboy/spineboy.json", "skeleton json")
	mixPath := flag.String("mix", "", "mix config yaml")
	scale := flag.Float64("scale", 1, "skeleton scale")
	anim := flag.String("anim", "", "first animation, default the first one")
	flag.Parse()

	data, err := spine.ParseSkeletonFile(*skelPath, float32(*scale))
	if err != nil {
		log.Fatal(err)
	}
	if len(data.Animations) == 0 {
		log.Fatalf("skeleton %s has no animation", data.Name)
	}
	stateData := spine.NewAnimationStateData(data)
	if *mixPath != "" {
		config, err := spine.LoadMixConfig(*mixPath)
		if err != nil {
			log.Fatal(err)
		}
		if err = config.Apply(stateData); err != nil {
			log.Fatal(err)
		}
	}
	game, err := NewGame(data, stateData, *anim)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("spineview - " + data.Name)
	if err = ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
