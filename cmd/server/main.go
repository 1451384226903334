package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/openpasswd/openpasswd/internal/server"
	"github.com/openpasswd/openpasswd/internal/server/config"
)

func main() {

	// a missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
