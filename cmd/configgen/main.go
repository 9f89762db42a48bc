package main

import (
	"flag"
	"log"

	"github.com/dmcree/airlink/internal/config"
)

func main() {
	output := flag.String("output", "airlink.toml", "output path for the config template")
	validate := flag.Bool("validate", false, "validate an existing config file instead")
	input := flag.String("input", "airlink.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite an existing config file")
	flag.Parse()

	if *validate {
		if _, err := config.Load(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("config ok: %s", *input)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("config written: %s", *output)
}
