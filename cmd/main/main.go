package main

import (
	"chatrelay/internal/pkg/app"
	"log"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
