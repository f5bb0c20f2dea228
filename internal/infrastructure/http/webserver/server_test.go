package webserver_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	recipeapp "github.com/econutri/tracker/internal/application/recipe"
	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/internal/infrastructure/http/middleware"
	"github.com/econutri/tracker/internal/infrastructure/http/webserver"
	"github.com/econutri/tracker/internal/infrastructure/monitoring"
	"github.com/econutri/tracker/internal/infrastructure/session"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/pkg/healthcheck"
	"github.com/econutri/tracker/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// WebServerTestSuite drives the full HTTP stack against an in-memory
// catalog
type WebServerTestSuite struct {
	suite.Suite
	db      *testutils.TestDatabase
	factory *testutils.RecipeFactory
	store   *session.MemoryStore
	metrics *monitoring.MetricsCollector
	server  *httptest.Server
	client  *http.Client
}

func (suite *WebServerTestSuite) SetupTest() {
	t := suite.T()
	logger := zap.NewNop()

	suite.db = testutils.SetupTestDatabase(t)
	suite.factory = testutils.NewRecipeFactory(11)
	suite.metrics = monitoring.NewMetricsCollector(logger)

	service := recipeapp.NewRecipeService(
		suite.db.Recipes,
		suite.db.Ingredients,
		recipe.FixedScorer(7),
		suite.metrics,
		logger,
	)

	cfg := config.Default()
	suite.store = session.NewMemoryStore(0, logger)
	sessions := session.NewManager(suite.store, cfg.Session, logger)

	renderer, err := webserver.NewRenderer(logger)
	require.NoError(t, err)

	ws, err := webserver.NewWebServer(cfg, logger, service, sessions, renderer, webserver.Options{
		Health:  healthcheck.New("test", logger),
		Metrics: suite.metrics,
	})
	require.NoError(t, err)

	suite.server = httptest.NewServer(ws.Handler())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	suite.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (suite *WebServerTestSuite) TearDownTest() {
	suite.server.Close()
	_ = suite.store.Close()
}

func (suite *WebServerTestSuite) get(path string, header ...string) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodGet, suite.server.URL+path, nil)
	require.NoError(suite.T(), err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return suite.do(req)
}

func (suite *WebServerTestSuite) post(path string, form url.Values) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodPost, suite.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return suite.do(req)
}

func (suite *WebServerTestSuite) do(req *http.Request) (*http.Response, string) {
	resp, err := suite.client.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)
	return resp, string(body)
}

// csrfToken loads the listing page and returns the form token
func (suite *WebServerTestSuite) csrfToken() string {
	resp, body := suite.get("/receta/index")
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	token := inputValue(body, "csrf_token")
	require.NotEmpty(suite.T(), token)
	return token
}

// inputValue returns the value attribute of the first input named name
func inputValue(body, name string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "input" {
				continue
			}
			var n, v string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "name":
					n = attr.Val
				case "value":
					v = attr.Val
				}
			}
			if n == name {
				return v
			}
		}
	}
}

// countElements counts start tags of the given element carrying class
func countElements(body, tag, class string) int {
	count := 0
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return count
		case html.StartTagToken:
			tok := z.Token()
			if tok.Data != tag {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key == "class" && strings.Contains(" "+attr.Val+" ", " "+class+" ") {
					count++
				}
			}
		}
	}
}

func (suite *WebServerTestSuite) assertRedirectToIndex(resp *http.Response) {
	assert.Equal(suite.T(), http.StatusFound, resp.StatusCode)
	assert.Equal(suite.T(), "/receta/index", resp.Header.Get("Location"))
}

func (suite *WebServerTestSuite) TestIndex_EmptyCatalog() {
	// Act
	resp, body := suite.get("/")

	// Assert
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(suite.T(), body, "<html")
	assert.Contains(suite.T(), body, "Recetas Sostenibles")
	assert.Contains(suite.T(), body, "Todavía no hay recetas")
	assert.Contains(suite.T(), body, `id="receta-list-container"`)
	assert.Zero(suite.T(), countElements(body, "a", "pagination-link"))
	assert.NotEmpty(suite.T(), inputValue(body, "csrf_token"))
}

func (suite *WebServerTestSuite) TestIndex_PaginatesNewestFirst() {
	// Arrange
	recipes := make([]*recipe.Recipe, 7)
	for i := range recipes {
		recipes[i] = suite.factory.Builder().WithTitle(fmt.Sprintf("Receta sostenible %d", i+1)).Build()
	}
	suite.db.InsertRecipes(recipes...)

	// Act
	_, first := suite.get("/receta/index")
	_, second := suite.get("/receta/index?page=2")
	_, clamped := suite.get("/receta/index?page=99")

	// Assert
	assert.Equal(suite.T(), 5, countElements(first, "li", "recipe-card"))
	assert.Contains(suite.T(), first, "Receta sostenible 7")
	assert.Equal(suite.T(), 2, countElements(second, "li", "recipe-card"))
	assert.Contains(suite.T(), second, "Receta sostenible 1")
	assert.Equal(suite.T(), 2, countElements(clamped, "li", "recipe-card"))
}

func (suite *WebServerTestSuite) TestIndex_AjaxReturnsFragmentOnly() {
	// Arrange
	suite.db.InsertRecipes(suite.factory.Recipes(7)...)

	// Act
	resp, body := suite.get("/receta/index?page=2", "X-Requested-With", "xmlhttprequest")

	// Assert
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.NotContains(suite.T(), body, "<html")
	assert.NotContains(suite.T(), body, `id="receta-form"`)
	assert.NotContains(suite.T(), body, `id="receta-list-container"`)
	assert.Equal(suite.T(), 2, countElements(body, "li", "recipe-card"))
	assert.Positive(suite.T(), countElements(body, "a", "pagination-link"))
}

func (suite *WebServerTestSuite) TestSave_WithoutValidTokenIsRejected() {
	// Arrange
	suite.csrfToken()
	form := url.Values{
		"csrf_token":  {"forged"},
		"titulo":      {"Lentejas estofadas"},
		"descripcion": {"Lentejas con verduras."},
	}

	// Act
	resp, _ := suite.post("/receta/save", form)

	// Assert
	suite.assertRedirectToIndex(resp)
	assert.Zero(suite.T(), suite.db.CountRows("recetas"))

	_, body := suite.get("/receta/index")
	assert.Contains(suite.T(), body, "Error de seguridad o método incorrecto.")
	assert.Equal(suite.T(), 1, countElements(body, "div", "flash-error"))
}

func (suite *WebServerTestSuite) TestSave_WrongMethodIsRejected() {
	// Act
	resp, _ := suite.get("/receta/save?titulo=Lentejas+estofadas&descripcion=x")

	// Assert
	suite.assertRedirectToIndex(resp)
	assert.Zero(suite.T(), suite.db.CountRows("recetas"))
}

func (suite *WebServerTestSuite) TestSave_Success() {
	// Arrange
	token := suite.csrfToken()
	form := url.Values{
		"csrf_token":        {token},
		"titulo":            {"  Lentejas estofadas  "},
		"descripcion":       {"Lentejas con verduras de temporada."},
		"ingredientes_data": {`[{"id":1,"nombre":"Lentejas","huella_carbono":0.9,"cantidad_gramos":200}]`},
	}

	// Act
	resp, _ := suite.post("/receta/save", form)

	// Assert
	suite.assertRedirectToIndex(resp)
	assert.Equal(suite.T(), int64(1), suite.db.CountRows("recetas"))

	_, body := suite.get("/receta/index")
	assert.Contains(suite.T(), body, "¡Receta guardada! Score Eco-Nutri: 7/10.")
	assert.Contains(suite.T(), body, "Lentejas estofadas")
	assert.Contains(suite.T(), body, "Lentejas (200 g)")
	assert.Equal(suite.T(), 1, countElements(body, "li", "recipe-card"))

	// The flash is shown once.
	_, body = suite.get("/receta/index")
	assert.NotContains(suite.T(), body, "Receta guardada")
}

func (suite *WebServerTestSuite) TestSave_ValidationKeepsOldInput() {
	// Arrange
	token := suite.csrfToken()
	form := url.Values{
		"csrf_token":  {token},
		"titulo":      {"Sopa"},
		"descripcion": {"Caldo de verduras."},
	}

	// Act
	resp, _ := suite.post("/receta/save", form)

	// Assert
	suite.assertRedirectToIndex(resp)
	assert.Zero(suite.T(), suite.db.CountRows("recetas"))

	_, body := suite.get("/receta/index")
	assert.Contains(suite.T(), body, "El título es muy corto.")
	assert.Equal(suite.T(), 1, countElements(body, "div", "flash-validation"))
	assert.Equal(suite.T(), "Sopa", inputValue(body, "titulo"))
	assert.Contains(suite.T(), body, "Caldo de verduras.</textarea>")
	assert.Equal(suite.T(), "[]", inputValue(body, "ingredientes_data"))
}

func (suite *WebServerTestSuite) TestSave_MissingDescription() {
	token := suite.csrfToken()

	resp, _ := suite.post("/receta/save", url.Values{
		"csrf_token": {token},
		"titulo":     {"Lentejas estofadas"},
	})

	suite.assertRedirectToIndex(resp)
	_, body := suite.get("/receta/index")
	assert.Contains(suite.T(), body, "La descripción es obligatoria.")
	assert.Zero(suite.T(), suite.db.CountRows("recetas"))
}

func (suite *WebServerTestSuite) TestSave_ReportsEveryInvalidField() {
	// Arrange
	token := suite.csrfToken()

	// Act
	resp, _ := suite.post("/receta/save", url.Values{
		"csrf_token":  {token},
		"titulo":      {"   "},
		"descripcion": {""},
	})

	// Assert
	suite.assertRedirectToIndex(resp)
	_, body := suite.get("/receta/index")
	assert.Contains(suite.T(), body, "El título es obligatorio.")
	assert.Contains(suite.T(), body, "La descripción es obligatoria.")
	assert.Equal(suite.T(), 1, countElements(body, "div", "flash-validation"))
	assert.Zero(suite.T(), suite.db.CountRows("recetas"))
}

func (suite *WebServerTestSuite) TestDelete() {
	suite.Run("ExistingRecipe_IsHidden", func() {
		// Arrange
		entity := suite.factory.Recipe()
		suite.db.InsertRecipes(entity)
		token := suite.csrfToken()

		// Act
		resp, _ := suite.post("/receta/delete", url.Values{
			"csrf_token": {token},
			"id":         {strconv.FormatInt(entity.ID(), 10)},
		})

		// Assert
		suite.assertRedirectToIndex(resp)
		assert.False(suite.T(), suite.db.IsActive(entity.ID()))
		_, body := suite.get("/receta/index")
		assert.Contains(suite.T(), body, "Receta eliminada.")
	})

	suite.Run("UnknownID_LeavesTableUnchanged", func() {
		// Arrange
		token := suite.csrfToken()
		before := suite.db.CountRows("recetas")

		// Act
		resp, _ := suite.post("/receta/delete", url.Values{
			"csrf_token": {token},
			"id":         {"987654"},
		})

		// Assert
		suite.assertRedirectToIndex(resp)
		assert.Equal(suite.T(), before, suite.db.CountRows("recetas"))
		_, body := suite.get("/receta/index")
		assert.Contains(suite.T(), body, "La receta no existe o ya fue eliminada.")
		assert.Equal(suite.T(), 1, countElements(body, "div", "flash-error"))
	})

	suite.Run("MalformedID_IsRejected", func() {
		token := suite.csrfToken()

		resp, _ := suite.post("/receta/delete", url.Values{
			"csrf_token": {token},
			"id":         {"abc"},
		})

		suite.assertRedirectToIndex(resp)
		_, body := suite.get("/receta/index")
		assert.Contains(suite.T(), body, "Identificador de receta inválido.")
	})

	suite.Run("WithoutToken_KeepsRecipe", func() {
		entity := suite.factory.Recipe()
		suite.db.InsertRecipes(entity)

		resp, _ := suite.post("/receta/delete", url.Values{"id": {strconv.FormatInt(entity.ID(), 10)}})

		suite.assertRedirectToIndex(resp)
		assert.True(suite.T(), suite.db.IsActive(entity.ID()))
	})
}

func (suite *WebServerTestSuite) TestAjaxRequestLeavesFlashForNextPage() {
	// Arrange
	suite.post("/receta/save", url.Values{"titulo": {"Lentejas estofadas"}})

	// Act
	_, fragment := suite.get("/receta/index", "X-Requested-With", "XMLHttpRequest")
	_, page := suite.get("/receta/index")

	// Assert
	assert.NotContains(suite.T(), fragment, "Error de seguridad")
	assert.Contains(suite.T(), page, "Error de seguridad o método incorrecto.")
}

func (suite *WebServerTestSuite) TestRouting() {
	cases := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/RECETA/INDEX", http.StatusOK},
		{"/123/456", http.StatusOK},
		{"/receta/index/extra", http.StatusOK},
		{"/receta/unknown", http.StatusNotFound},
		{"/usuarios/index", http.StatusNotFound},
	}

	for _, tc := range cases {
		resp, body := suite.get(tc.path)
		assert.Equal(suite.T(), tc.status, resp.StatusCode, tc.path)
		if tc.status == http.StatusNotFound {
			assert.Contains(suite.T(), body, "Página no encontrada.", tc.path)
		}
	}
}

func (suite *WebServerTestSuite) TestSearchIngredients() {
	// Arrange
	suite.db.InsertIngredients(
		recipe.Ingredient{Name: "Tomate", CarbonFootprint: 1.4},
		recipe.Ingredient{Name: "Pasta de tomate", CarbonFootprint: 2.1},
		recipe.Ingredient{Name: "Lentejas", CarbonFootprint: 0.9},
	)

	suite.Run("Matches", func() {
		resp, body := suite.get("/api/searchIngredientes?q=toma")

		require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		assert.Contains(suite.T(), resp.Header.Get("Content-Type"), "application/json")

		var results []inbound.IngredientDTO
		require.NoError(suite.T(), json.Unmarshal([]byte(body), &results))
		require.Len(suite.T(), results, 2)
		assert.Equal(suite.T(), "Pasta de tomate", results[0].Name)
		assert.Equal(suite.T(), "Tomate", results[1].Name)
		assert.Contains(suite.T(), body, `"huella_carbono":1.4`)
	})

	suite.Run("ShortQueryIsEmptyArray", func() {
		_, body := suite.get("/api/searchIngredientes?q=to")
		assert.JSONEq(suite.T(), `[]`, body)
	})

	suite.Run("PostIsNotAllowed", func() {
		resp, _ := suite.post("/api/searchIngredientes?q=toma", url.Values{})
		assert.Equal(suite.T(), http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(suite.T(), http.MethodGet, resp.Header.Get("Allow"))
	})
}

func (suite *WebServerTestSuite) TestAssetsAndHeaders() {
	resp, body := suite.get("/assets/js/app.js")

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), body, "ingrediente-search")
	assert.Contains(suite.T(), resp.Header.Get("Cache-Control"), "max-age")

	resp, _ = suite.get("/receta/index")
	assert.Equal(suite.T(), "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(suite.T(), resp.Header.Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(suite.T(), resp.Header.Get("X-Request-ID"))

	resp, _ = suite.get("/favicon.ico")
	assert.Equal(suite.T(), http.StatusNoContent, resp.StatusCode)
}

func (suite *WebServerTestSuite) TestBrotliCompression() {
	req, err := http.NewRequest(http.MethodGet, suite.server.URL+"/receta/index", nil)
	require.NoError(suite.T(), err)
	req.Header.Set("Accept-Encoding", "br")

	resp, err := suite.client.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	require.Equal(suite.T(), "br", resp.Header.Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(resp.Body))
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), string(body), "Recetas Sostenibles")
}

func (suite *WebServerTestSuite) TestHealthAndMetrics() {
	resp, body := suite.get("/health")
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), body, `"status":"healthy"`)

	token := suite.csrfToken()
	suite.post("/receta/save", url.Values{
		"csrf_token":  {token},
		"titulo":      {"Lentejas estofadas"},
		"descripcion": {"Lentejas con verduras."},
	})
	suite.post("/receta/save", url.Values{"csrf_token": {"forged"}})

	resp, body = suite.get("/metrics")
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), body, "econutri_recipes_created_total 1")
	assert.Contains(suite.T(), body, "econutri_csrf_rejections_total 1")
	assert.Contains(suite.T(), body, `econutri_actions_total{action="save",controller="receta",status_code="302"} 2`)
}

// rotatingClientCodes sends five requests from one socket address, each
// claiming a different forwarded client, and returns the status codes
func rotatingClientCodes(t *testing.T, behindProxy bool) []int {
	t.Helper()
	logger := zap.NewNop()

	cfg := config.Default()
	cfg.Server.BehindProxy = behindProxy
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstSize: 2}

	store := session.NewMemoryStore(0, logger)
	t.Cleanup(func() { _ = store.Close() })
	renderer, err := webserver.NewRenderer(logger)
	require.NoError(t, err)

	ws, err := webserver.NewWebServer(cfg, logger, nil, session.NewManager(store, cfg.Session, logger), renderer,
		webserver.Options{Limiter: middleware.NewRateLimiter(cfg.RateLimit, logger)})
	require.NoError(t, err)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		ws.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	return codes
}

func TestRateLimit_IgnoresForwardedHeadersByDefault(t *testing.T) {
	codes := rotatingClientCodes(t, false)

	assert.Equal(t, []int{204, 204, 429, 429, 429}, codes)
}

func TestRateLimit_TrustsForwardedHeadersBehindProxy(t *testing.T) {
	codes := rotatingClientCodes(t, true)

	assert.Equal(t, []int{204, 204, 204, 204, 204}, codes)
}

func TestWebServerTestSuite(t *testing.T) {
	suite.Run(t, new(WebServerTestSuite))
}
