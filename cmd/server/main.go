package main

import (
	"context"
	"log"

	"github.com/drivepool/drivepool/internal/server"
	"github.com/drivepool/drivepool/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
