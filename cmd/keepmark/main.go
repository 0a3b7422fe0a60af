package main

import (
	"log"

	"github.com/MrSnakeDoc/keepmark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ keepmark failed to start: %v", err)
	}
}
