package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/taskmaster/internal/buildinfo"
	"github.com/dmitrijs2005/taskmaster/internal/server"
	"github.com/dmitrijs2005/taskmaster/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
