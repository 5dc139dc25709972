package main

import (
	"log"

	"github.com/MrSnakeDoc/arrcenter/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ arrcenter failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ arrcenter failed: %v", err)
	}
}
