package container_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/internal/infrastructure/container"
	"github.com/econutri/tracker/internal/infrastructure/http/webserver"
	"github.com/econutri/tracker/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.App.LogLevel = "error"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ":memory:"
	cfg.Database.LogLevel = "silent"
	cfg.Database.SeedDemo = true
	return cfg
}

func TestModule_GraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(fx.Supply(testConfig()), container.Module)
	assert.NoError(t, err)
}

func TestModule_ServesCatalog(t *testing.T) {
	var (
		server  *webserver.WebServer
		recipes outbound.RecipeRepository
	)

	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(testConfig()),
		container.Module,
		fx.Populate(&server, &recipes),
	)
	app.RequireStart()
	defer app.RequireStop()

	count, err := recipes.CountActive(context.Background())
	require.NoError(t, err)
	assert.Positive(t, count, "demo recipes are seeded into an empty catalog")

	resp, err := http.Get("http://" + server.Addr() + "/receta/index")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Recetas Sostenibles")

	search, err := http.Get("http://" + server.Addr() + "/api/searchIngredientes?q=lent")
	require.NoError(t, err)
	defer search.Body.Close()
	results, err := io.ReadAll(search.Body)
	require.NoError(t, err)
	assert.Contains(t, string(results), "Lentejas")

	health, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
