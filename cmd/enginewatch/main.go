package main

import (
	"github.com/oceanlens/enginewatch/internal/cmd"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("enginewatch failed: %v", err)
	}
}
