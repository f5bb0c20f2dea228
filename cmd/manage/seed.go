package main

import (
	"fmt"
	"time"

	"github.com/econutri/tracker/internal/infrastructure/container"
	"github.com/econutri/tracker/internal/infrastructure/persistence/database"
	gormRepo "github.com/econutri/tracker/internal/infrastructure/persistence/gorm"
	"github.com/econutri/tracker/internal/infrastructure/persistence/seed"
	"github.com/spf13/cobra"
)

var (
	seedCount       int
	seedWorkers     int
	seedValue       int64
	seedCatalogOnly bool
)

// seedCmd loads reference and demo data
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the ingredient catalog and demo recipes",
	Long: `Load the reference ingredient catalog, then insert demo recipes.

Catalog entries that already exist are skipped. Demo recipes get a title
from a fixed list suffixed with their sequence number, a score between 6
and 10, and about one in twenty is stored inactive.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", seed.DefaultRecipeCount, "number of demo recipes to insert")
	seedCmd.Flags().IntVarP(&seedWorkers, "workers", "w", 4, "concurrent inserts")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (0 picks one from the clock)")
	seedCmd.Flags().BoolVar(&seedCatalogOnly, "catalog-only", false, "only load the ingredient catalog")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if err := container.PrepareSchema(cfg, db, log); err != nil {
		return err
	}

	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}

	seeder := seed.NewSeeder(gormRepo.NewRecipeRepository(db), gormRepo.NewIngredientRepository(db), seedValue, log)

	ctx := cmd.Context()
	added, err := seeder.SeedCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("ingredients added: %d\n", added)

	if seedCatalogOnly {
		return nil
	}

	inserted, err := seeder.SeedRecipes(ctx, seedCount, seedWorkers)
	fmt.Printf("recipes inserted: %d/%d (seed %d)\n", inserted, seedCount, seedValue)
	return err
}
