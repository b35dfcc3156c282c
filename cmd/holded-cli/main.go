package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/solucions-socials/platform/pkg/common/logger"
)

func main() {
	_ = godotenv.Load()
	if os.Getenv("LOG_FORMAT") == "" {
		os.Setenv("LOG_FORMAT", "text")
	}
	logger.Init()
	// stdout carries command output
	logger.Log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
