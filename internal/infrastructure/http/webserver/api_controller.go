package webserver

import (
	"net/http"

	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/pkg/errors"
)

type apiController struct {
	service inbound.RecipeService
}

func (c *apiController) actions() map[string]Action {
	return map[string]Action{
		"searchingredientes": c.searchIngredients,
	}
}

// searchIngredients answers the search-as-you-type box with a JSON array
func (c *apiController) searchIngredients(rc *RequestContext) {
	if rc.Request.Method != http.MethodGet {
		rc.Writer.Header().Set("Allow", http.MethodGet)
		appErr := errors.NewMethodNotAllowedError(rc.Request.Method)
		rc.JSON(appErr.StatusCode(), appErr)
		return
	}

	results := c.service.SearchIngredients(rc.Request.Context(), rc.Request.URL.Query().Get("q"))
	rc.JSON(http.StatusOK, results)
}
