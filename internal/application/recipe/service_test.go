package recipe_test

import (
	"context"
	stderrors "errors"
	"testing"

	recipeapp "github.com/econutri/tracker/internal/application/recipe"
	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/pkg/errors"
	"github.com/econutri/tracker/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// RecipeServiceTestSuite exercises the recipe use cases against mocks
type RecipeServiceTestSuite struct {
	suite.Suite
	service     *recipeapp.RecipeService
	recipes     *testutils.MockRecipeRepository
	ingredients *testutils.MockIngredientRepository
	events      *testutils.MockEventPublisher
	factory     *testutils.RecipeFactory
	ctx         context.Context
}

func (suite *RecipeServiceTestSuite) SetupTest() {
	suite.recipes = testutils.NewMockRecipeRepository()
	suite.ingredients = new(testutils.MockIngredientRepository)
	suite.events = new(testutils.MockEventPublisher)
	suite.factory = testutils.NewRecipeFactory(11)
	suite.ctx = context.Background()

	suite.service = recipeapp.NewRecipeService(
		suite.recipes,
		suite.ingredients,
		recipe.FixedScorer(7),
		suite.events,
		zap.NewNop(),
	)
}

func (suite *RecipeServiceTestSuite) TestListRecipes_FirstPage() {
	// Arrange
	page := suite.factory.Recipes(5)
	suite.recipes.On("CountActive", suite.ctx).Return(int64(12), nil)
	suite.recipes.On("ListActive", suite.ctx, 0, recipeapp.PageSize).Return(page, nil)

	// Act
	list := suite.service.ListRecipes(suite.ctx, inbound.ListRecipesQuery{})

	// Assert
	require.Len(suite.T(), list.Recipes, 5)
	assert.Equal(suite.T(), 1, list.Pagination.Current)
	assert.Equal(suite.T(), 3, list.Pagination.TotalPages)
	assert.Equal(suite.T(), page[0].Title(), list.Recipes[0].Title)
	suite.recipes.AssertExpectations(suite.T())
}

func (suite *RecipeServiceTestSuite) TestListRecipes_ClampsPage() {
	testCases := []struct {
		name       string
		page       string
		wantPage   int
		wantOffset int
	}{
		{name: "beyond last", page: "99", wantPage: 3, wantOffset: 10},
		{name: "negative", page: "-4", wantPage: 1, wantOffset: 0},
		{name: "garbage", page: "abc", wantPage: 1, wantOffset: 0},
		{name: "middle", page: "2", wantPage: 2, wantOffset: 5},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			repo := testutils.NewMockRecipeRepository()
			repo.On("CountActive", mock.Anything).Return(int64(12), nil)
			repo.On("ListActive", mock.Anything, tc.wantOffset, recipeapp.PageSize).Return([]*recipe.Recipe{}, nil)
			service := recipeapp.NewRecipeService(repo, suite.ingredients, recipe.FixedScorer(7), suite.events, zap.NewNop())

			list := service.ListRecipes(suite.ctx, inbound.ListRecipesQuery{Page: tc.page})

			assert.Equal(suite.T(), tc.wantPage, list.Pagination.Current)
			repo.AssertExpectations(suite.T())
		})
	}
}

func (suite *RecipeServiceTestSuite) TestListRecipes_EmptyCatalogSkipsQuery() {
	// Arrange
	suite.recipes.On("CountActive", suite.ctx).Return(int64(0), nil)

	// Act
	list := suite.service.ListRecipes(suite.ctx, inbound.ListRecipesQuery{Page: "4"})

	// Assert
	assert.NotNil(suite.T(), list.Recipes)
	assert.Empty(suite.T(), list.Recipes)
	assert.Equal(suite.T(), 1, list.Pagination.Current)
	assert.Equal(suite.T(), 1, list.Pagination.TotalPages)
	suite.recipes.AssertNotCalled(suite.T(), "ListActive", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecipeServiceTestSuite) TestListRecipes_StorageFailuresDegrade() {
	suite.Run("count fails", func() {
		repo := testutils.NewMockRecipeRepository()
		repo.On("CountActive", mock.Anything).Return(int64(0), stderrors.New("database is locked"))
		service := recipeapp.NewRecipeService(repo, suite.ingredients, recipe.FixedScorer(7), suite.events, zap.NewNop())

		list := service.ListRecipes(suite.ctx, inbound.ListRecipesQuery{})

		assert.Empty(suite.T(), list.Recipes)
		assert.True(suite.T(), list.Pagination.IsEmpty())
	})

	suite.Run("list fails", func() {
		repo := testutils.NewMockRecipeRepository()
		repo.On("CountActive", mock.Anything).Return(int64(3), nil)
		repo.On("ListActive", mock.Anything, 0, recipeapp.PageSize).Return(nil, stderrors.New("no such table: recetas"))
		service := recipeapp.NewRecipeService(repo, suite.ingredients, recipe.FixedScorer(7), suite.events, zap.NewNop())

		list := service.ListRecipes(suite.ctx, inbound.ListRecipesQuery{})

		assert.NotNil(suite.T(), list.Recipes)
		assert.Empty(suite.T(), list.Recipes)
		assert.Equal(suite.T(), int64(3), list.Pagination.TotalItems)
	})
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_Success() {
	// Arrange
	suite.recipes.On("Create", suite.ctx, mock.AnythingOfType("*recipe.Recipe")).Return(nil)
	suite.events.On("Publish", suite.ctx, mock.Anything).Return(nil)
	cmd := inbound.CreateRecipeCommand{
		Title:           "  Ensalada de lentejas  ",
		Description:     "Lentejas, tomate y cebolla.",
		IngredientsData: `[{"id":3,"nombre":"Lentejas","huella_carbono":0.9,"cantidad_gramos":150}]`,
	}

	// Act
	dto, err := suite.service.CreateRecipe(suite.ctx, cmd)

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), dto.ID)
	assert.Equal(suite.T(), "Ensalada de lentejas", dto.Title)
	assert.Equal(suite.T(), 7, dto.Score)
	assert.Equal(suite.T(), "medium", dto.Grade)
	require.Len(suite.T(), dto.Ingredients, 1)
	assert.Equal(suite.T(), "Lentejas", dto.Ingredients[0].Name)
	assert.Equal(suite.T(), []string{"recipe.created"}, suite.events.EventNames())
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_PublishFailureDoesNotFail() {
	// Arrange
	suite.recipes.On("Create", suite.ctx, mock.Anything).Return(nil)
	suite.events.On("Publish", suite.ctx, mock.Anything).Return(stderrors.New("collector offline"))

	// Act
	dto, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{
		Title:       "Crema de calabaza",
		Description: "Calabaza asada.",
	})

	// Assert
	require.NoError(suite.T(), err)
	assert.Positive(suite.T(), dto.ID)
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_ValidationErrors() {
	testCases := []struct {
		name    string
		cmd     inbound.CreateRecipeCommand
		wantErr error
	}{
		{
			name:    "short title",
			cmd:     inbound.CreateRecipeCommand{Title: "Sopa", Description: "Caldo."},
			wantErr: recipe.ErrTitleTooShort,
		},
		{
			name:    "blank title",
			cmd:     inbound.CreateRecipeCommand{Title: "   ", Description: "Caldo."},
			wantErr: recipe.ErrTitleRequired,
		},
		{
			name:    "missing description",
			cmd:     inbound.CreateRecipeCommand{Title: "Sopa de miso"},
			wantErr: recipe.ErrDescriptionRequired,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			dto, err := suite.service.CreateRecipe(suite.ctx, tc.cmd)

			assert.Nil(suite.T(), dto)
			assert.True(suite.T(), errors.Is(err, errors.CodeValidationFailed))
			assert.ErrorIs(suite.T(), err, tc.wantErr)
		})
	}

	suite.recipes.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	assert.Empty(suite.T(), suite.events.Events())
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_RepositoryFailure() {
	// Arrange
	suite.recipes.On("Create", suite.ctx, mock.Anything).Return(stderrors.New("disk full"))

	// Act
	dto, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{
		Title:       "Crema de calabaza",
		Description: "Calabaza asada.",
	})

	// Assert
	assert.Nil(suite.T(), dto)
	assert.True(suite.T(), errors.Is(err, errors.CodeDatabaseError))
	assert.Empty(suite.T(), suite.events.Events())
}

func (suite *RecipeServiceTestSuite) TestDeleteRecipe() {
	suite.Run("deactivates and publishes", func() {
		suite.SetupTest()
		suite.recipes.On("Deactivate", suite.ctx, int64(4)).Return(nil)
		suite.events.On("Publish", suite.ctx, mock.Anything).Return(nil)

		err := suite.service.DeleteRecipe(suite.ctx, 4)

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), []string{"recipe.deactivated"}, suite.events.EventNames())
	})

	suite.Run("unknown id", func() {
		suite.SetupTest()
		suite.recipes.On("Deactivate", suite.ctx, int64(404)).Return(recipe.ErrRecipeNotFound)

		err := suite.service.DeleteRecipe(suite.ctx, 404)

		assert.True(suite.T(), errors.Is(err, errors.CodeRecipeNotFound))
		assert.ErrorIs(suite.T(), err, recipe.ErrRecipeNotFound)
		assert.Empty(suite.T(), suite.events.Events())
	})

	suite.Run("invalid id", func() {
		suite.SetupTest()

		err := suite.service.DeleteRecipe(suite.ctx, 0)

		assert.True(suite.T(), errors.Is(err, errors.CodeBadRequest))
		suite.recipes.AssertNotCalled(suite.T(), "Deactivate", mock.Anything, mock.Anything)
	})

	suite.Run("storage failure", func() {
		suite.SetupTest()
		suite.recipes.On("Deactivate", suite.ctx, int64(2)).Return(stderrors.New("connection reset"))

		err := suite.service.DeleteRecipe(suite.ctx, 2)

		assert.True(suite.T(), errors.Is(err, errors.CodeDatabaseError))
	})
}

func (suite *RecipeServiceTestSuite) TestSearchIngredients() {
	suite.Run("short query skips storage", func() {
		suite.SetupTest()

		results := suite.service.SearchIngredients(suite.ctx, " to ")

		assert.NotNil(suite.T(), results)
		assert.Empty(suite.T(), results)
		suite.ingredients.AssertNotCalled(suite.T(), "SearchByName", mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("maps matches", func() {
		suite.SetupTest()
		suite.ingredients.On("SearchByName", suite.ctx, "tom", recipeapp.MaxSearchResults).
			Return([]recipe.Ingredient{{ID: 9, Name: "Tomate", CarbonFootprint: 1.4}}, nil)

		results := suite.service.SearchIngredients(suite.ctx, "tom")

		assert.Equal(suite.T(), []inbound.IngredientDTO{{ID: 9, Name: "Tomate", CarbonFootprint: 1.4}}, results)
	})

	suite.Run("storage failure yields empty", func() {
		suite.SetupTest()
		suite.ingredients.On("SearchByName", suite.ctx, "tomate", recipeapp.MaxSearchResults).
			Return(nil, stderrors.New("timeout"))

		results := suite.service.SearchIngredients(suite.ctx, "tomate")

		assert.NotNil(suite.T(), results)
		assert.Empty(suite.T(), results)
	})
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}
