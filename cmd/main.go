package main

import (
	"fmt"
	"os"

	"github.com/plcworks/plchub-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	a.Log.Info("Starting HTTP server", "addr", addr)
	if err := a.Run(addr); err != nil {
		a.Log.Error("HTTP server stopped", "error", err)
		os.Exit(1)
	}
}
