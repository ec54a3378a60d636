package main

import (
	"context"
	"log"

	"github.com/categolj/entry-api-gemfire/internal/server"
	"github.com/categolj/entry-api-gemfire/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	app.Run(ctx)
}
