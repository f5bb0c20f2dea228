package testutils

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// RecipeAssertions provides recipe-specific assertion methods
type RecipeAssertions struct {
	t *testing.T
}

// NewRecipeAssertions creates a new recipe assertions helper
func NewRecipeAssertions(t *testing.T) *RecipeAssertions {
	return &RecipeAssertions{t: t}
}

// Persisted asserts that a recipe was stored and is listed
func (ra *RecipeAssertions) Persisted(r *recipe.Recipe, msgAndArgs ...interface{}) {
	require.NotNil(ra.t, r, "Recipe should not be nil")
	assert.Positive(ra.t, r.ID(), msgAndArgs...)
	assert.NotEmpty(ra.t, r.Title(), msgAndArgs...)
	assert.NotEmpty(ra.t, r.Description(), msgAndArgs...)
	assert.True(ra.t, r.Score().Valid(), "Score %d should be within 0..10", r.Score())
	assert.True(ra.t, r.IsActive(), msgAndArgs...)
	assert.False(ra.t, r.CreatedAt().IsZero(), msgAndArgs...)
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// RedirectsTo asserts a 302 Found to location
func (ha *HTTPAssertions) RedirectsTo(resp *http.Response, location string, msgAndArgs ...interface{}) {
	ha.StatusCode(resp, http.StatusFound, msgAndArgs...)
	assert.Equal(ha.t, location, resp.Header.Get("Location"), msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	err := json.NewDecoder(resp.Body).Decode(target)
	assert.NoError(ha.t, err, msgAndArgs...)
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(resp *http.Response, headerName string, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.NotEmpty(ha.t, resp.Header.Get(headerName), "Response should have header %s", headerName)
}

// SecurityHeaders asserts that the browser hardening headers are present
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response) {
	for _, header := range []string{
		"Content-Security-Policy",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Permissions-Policy",
	} {
		ha.HasHeader(resp, header)
	}
}

// DatabaseAssertions provides database-specific assertions
type DatabaseAssertions struct {
	t  *testing.T
	db *gorm.DB
}

// NewDatabaseAssertions creates a new database assertions helper
func NewDatabaseAssertions(t *testing.T, db *gorm.DB) *DatabaseAssertions {
	return &DatabaseAssertions{t: t, db: db}
}

// RecordExists asserts that a row matching the condition exists
func (da *DatabaseAssertions) RecordExists(table, whereClause string, args ...interface{}) {
	assert.Positive(da.t, da.count(table, whereClause, args...),
		"Record should exist in table %s with condition %s", table, whereClause)
}

// RecordNotExists asserts that no row matches the condition
func (da *DatabaseAssertions) RecordNotExists(table, whereClause string, args ...interface{}) {
	assert.Zero(da.t, da.count(table, whereClause, args...),
		"Record should not exist in table %s with condition %s", table, whereClause)
}

// RecordCount asserts the number of rows in a table
func (da *DatabaseAssertions) RecordCount(table string, expectedCount int64, msgAndArgs ...interface{}) {
	assert.Equal(da.t, expectedCount, da.count(table, ""), msgAndArgs...)
}

// TableEmpty asserts that a table is empty
func (da *DatabaseAssertions) TableEmpty(table string, msgAndArgs ...interface{}) {
	da.RecordCount(table, 0, msgAndArgs...)
}

func (da *DatabaseAssertions) count(table, whereClause string, args ...interface{}) int64 {
	da.t.Helper()

	query := da.db.Table(table)
	if whereClause != "" {
		query = query.Where(whereClause, args...)
	}

	var count int64
	require.NoError(da.t, query.Count(&count).Error, "Failed to count rows in %s", table)
	return count
}
