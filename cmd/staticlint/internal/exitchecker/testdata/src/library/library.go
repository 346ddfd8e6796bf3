package library

import (
	"log"
	"os"
)

func Stop(code int) {
	log.Println("stopping")
	os.Exit(code)
}
