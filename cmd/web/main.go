// Package main provides the entry point for the Eco-Nutri web application
package main

import (
	"github.com/econutri/tracker/internal/infrastructure/container"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default: config.yaml in ., ./config or /etc/econutri)")
	pflag.Parse()

	app := fx.New(
		fx.NopLogger,
		container.ConfigModule(*configPath),
		container.Module,
	)

	app.Run()
}
