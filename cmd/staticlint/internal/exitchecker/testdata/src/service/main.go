package main

import (
	"errors"
	"log"
	"os"
)

func run() error {
	if len(os.Args) > 3 {
		log.Fatalf("too many args: %d", len(os.Args)) // want `calling log.Fatalf outside func main`
	}
	return errors.New("stopped")
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
	os.Exit(0) // want `calling os.Exit in package main`
}
