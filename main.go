package main

import (
	"flag"
	"fmt"
	"os"

	"yashubustudio/deliveryadvisor/internal/app"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./config.yaml)")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
