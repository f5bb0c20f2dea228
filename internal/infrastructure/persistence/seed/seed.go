// Package seed fills a catalog database with the reference ingredient list
// and demo recipes.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultRecipeCount is the number of demo recipes created by a full seed
const DefaultRecipeCount = 100

// inactiveChance is the percentage of demo recipes stored inactive
const inactiveChance = 5

const demoDescription = "Una receta sencilla y nutritiva basada en la dieta mediterránea. " +
	"Perfecta para un almuerzo rápido y ecológico."

var demoTitles = []string{
	"Ensalada de Quinoa y Aguacate",
	"Curry de Garbanzos y Espinacas",
	"Sopa Detox de Lentejas",
	"Tacos de Pescado Sostenible",
	"Bowl de Arroz Integral y Tofu",
	"Smoothie Verde Matutino",
	"Pizza de Vegetales de Temporada",
	"Pasta Integral con Pesto Casero",
	"Estofado de Setas Silvestres",
	"Hummus Casero con Zanahorias",
	"Bandeja de Desayuno con Frutas",
}

type catalogFile struct {
	Ingredients []struct {
		Name            string  `yaml:"nombre"`
		CarbonFootprint float64 `yaml:"huella_carbono"`
	} `yaml:"ingredientes"`
}

// Catalog parses the embedded reference ingredient list
func Catalog() ([]recipe.Ingredient, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parse ingredient catalog: %w", err)
	}

	ingredients := make([]recipe.Ingredient, 0, len(file.Ingredients))
	for _, item := range file.Ingredients {
		ing := recipe.Ingredient{Name: item.Name, CarbonFootprint: item.CarbonFootprint}
		if err := ing.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", item.Name, err)
		}
		ingredients = append(ingredients, ing)
	}

	return ingredients, nil
}

// Seeder populates the catalog tables
type Seeder struct {
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	faker       *gofakeit.Faker
	logger      *zap.Logger
}

// NewSeeder creates a seeder. The same seed produces the same demo data.
func NewSeeder(recipes outbound.RecipeRepository, ingredients outbound.IngredientRepository, seed int64, logger *zap.Logger) *Seeder {
	return &Seeder{
		recipes:     recipes,
		ingredients: ingredients,
		faker:       gofakeit.New(seed),
		logger:      logger.Named("seeder"),
	}
}

// SeedCatalog stores the reference ingredients that are not present yet
func (s *Seeder) SeedCatalog(ctx context.Context) (int, error) {
	catalog, err := Catalog()
	if err != nil {
		return 0, err
	}

	added, err := s.ingredients.SaveCatalog(ctx, catalog)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Ingredient catalog seeded",
		zap.Int("catalog_size", len(catalog)),
		zap.Int("added", added),
	)

	return added, nil
}

// storedCatalog returns the persisted ingredients, seeding the reference
// list first when the table is empty, so demo payloads carry real IDs
func (s *Seeder) storedCatalog(ctx context.Context) ([]recipe.Ingredient, error) {
	catalog, err := s.ingredients.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) > 0 {
		return catalog, nil
	}

	if _, err := s.SeedCatalog(ctx); err != nil {
		return nil, err
	}
	return s.ingredients.ListAll(ctx)
}

// SeedRecipes inserts count demo recipes using up to workers concurrent
// inserts. About one in twenty is stored inactive.
func (s *Seeder) SeedRecipes(ctx context.Context, count, workers int) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	if workers < 1 {
		workers = 1
	}

	catalog, err := s.storedCatalog(ctx)
	if err != nil {
		return 0, err
	}

	// The faker is not safe for concurrent use, so all data is generated
	// before the inserts fan out.
	batch := make([]*recipe.Recipe, 0, count)
	for i := 1; i <= count; i++ {
		r, err := s.demoRecipe(i, catalog)
		if err != nil {
			return 0, err
		}
		batch = append(batch, r)
	}

	start := time.Now()
	var inserted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range batch {
		g.Go(func() error {
			if err := s.recipes.Create(gctx, r); err != nil {
				return fmt.Errorf("insert demo recipe %q: %w", r.Title(), err)
			}
			inserted.Add(1)
			return nil
		})
	}

	err = g.Wait()

	s.logger.Info("Demo recipes seeded",
		zap.Int64("inserted", inserted.Load()),
		zap.Int("requested", count),
		zap.Duration("duration", time.Since(start)),
	)

	return int(inserted.Load()), err
}

// demoRecipe builds the i-th demo recipe
func (s *Seeder) demoRecipe(i int, catalog []recipe.Ingredient) (*recipe.Recipe, error) {
	title := fmt.Sprintf("%s #%d", demoTitles[s.faker.IntRange(0, len(demoTitles)-1)], i)
	score, err := recipe.NewSustainabilityScore(s.faker.IntRange(6, 10))
	if err != nil {
		return nil, err
	}

	payload, err := s.demoIngredients(catalog)
	if err != nil {
		return nil, err
	}

	r, err := recipe.NewRecipe(title, demoDescription, payload, score)
	if err != nil {
		return nil, fmt.Errorf("build demo recipe %q: %w", title, err)
	}

	if s.faker.IntRange(1, 100) <= inactiveChance {
		if err := r.Deactivate(); err != nil {
			return nil, err
		}
	}
	r.Events()

	return r, nil
}

// demoIngredients picks 2 to 5 distinct catalog entries with quantities
func (s *Seeder) demoIngredients(catalog []recipe.Ingredient) (string, error) {
	if len(catalog) == 0 {
		return recipe.EmptyIngredients, nil
	}

	n := s.faker.IntRange(2, 5)
	if n > len(catalog) {
		n = len(catalog)
	}

	picked := make(map[int]bool, n)
	items := make([]recipe.RecipeIngredient, 0, n)
	for len(items) < n {
		idx := s.faker.IntRange(0, len(catalog)-1)
		if picked[idx] {
			continue
		}
		picked[idx] = true

		ing := catalog[idx]
		items = append(items, recipe.RecipeIngredient{
			ID:              ing.ID,
			Name:            ing.Name,
			CarbonFootprint: ing.CarbonFootprint,
			Grams:           float64(s.faker.IntRange(1, 40) * 10),
		})
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode demo ingredients: %w", err)
	}
	return string(data), nil
}
