package main

import (
	"github.com/joho/godotenv"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	Execute()
}
