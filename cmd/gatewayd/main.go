package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/gateway"
	"github.com/quarrelhq/quarrel/pkg/logger"
)

func main() {
	// Parse command line flags
	listenAddr := flag.String("listen", ":8000", "Address to listen on")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Set up logger
	logger := logger.NewLogger(*debug)
	defer logger.Sync()

	logger.Info("quarrel gateway starting",
		zap.String("listen", *listenAddr),
		zap.Bool("debug", *debug),
	)

	// Create and run the gateway
	config := gateway.Config{
		ListenAddr: *listenAddr,
	}

	g := gateway.New(config, logger)
	if err := g.Run(); err != nil {
		logger.Fatal("gateway server failed", zap.Error(err))
	}
}
