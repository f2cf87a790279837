package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/userauth/internal/cli"
	"github.com/dmitrijs2005/userauth/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		app.Close()
		log.Fatalf("%v", err)
	}

}
