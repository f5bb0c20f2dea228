package webserver

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/infrastructure/monitoring"
	"github.com/econutri/tracker/internal/infrastructure/session"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/pkg/errors"
	"github.com/econutri/tracker/pkg/pagination"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	indexPath = "/receta/index"

	// maxFormBytes bounds a recipe form submission
	maxFormBytes = 128 << 10

	pageTitle = "Recetas Sostenibles"
)

// User facing messages
const (
	msgSecurityError      = "Error de seguridad o método incorrecto."
	msgSaved              = "¡Receta guardada! Score Eco-Nutri: %d/10."
	msgSaveFailed         = "Error interno al guardar la receta."
	msgInvalidID          = "Identificador de receta inválido."
	msgRecipeNotFound     = "La receta no existe o ya fue eliminada."
	msgDeleteFailed       = "Error interno al eliminar la receta."
	msgDeleted            = "Receta eliminada."
	msgTitleRequired      = "El título es obligatorio."
	msgTitleTooShort      = "El título es muy corto."
	msgTitleTooLong       = "El título es demasiado largo."
	msgDescRequired       = "La descripción es obligatoria."
	msgDescTooLong        = "La descripción es demasiado larga."
	msgIngredientsTooLong = "La lista de ingredientes es demasiado grande."
	msgInvalidForm        = "Los datos enviados no son válidos."
)

// CreateRecipeForm is the submitted recipe form
type CreateRecipeForm struct {
	Title           string `form:"titulo" validate:"required,min=5,max=255"`
	Description     string `form:"descripcion" validate:"required,max=2000"`
	IngredientsData string `form:"ingredientes_data" validate:"max=65536"`
}

// oldInput returns the form values to re-populate after a failed save
func (f CreateRecipeForm) oldInput() map[string]string {
	return map[string]string{
		"titulo":            f.Title,
		"descripcion":       f.Description,
		"ingredientes_data": f.IngredientsData,
	}
}

// IndexView is the data of the listing page and its fragment
type IndexView struct {
	Title      string
	Recipes    []inbound.RecipeDTO
	Pagination pagination.Page
	CSRFToken  string
	Flash      *session.Flash
	OldInput   map[string]string
}

type recipeController struct {
	service  inbound.RecipeService
	validate *validator.Validate
	metrics  *monitoring.MetricsCollector
}

func newRecipeController(service inbound.RecipeService, metrics *monitoring.MetricsCollector) *recipeController {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})

	return &recipeController{
		service:  service,
		validate: validate,
		metrics:  metrics,
	}
}

func (c *recipeController) actions() map[string]Action {
	return map[string]Action{
		"index":  c.index,
		"save":   c.save,
		"delete": c.delete,
	}
}

// index lists active recipes. AJAX requests receive only the list fragment
// and leave the flash for the next full page.
func (c *recipeController) index(rc *RequestContext) {
	ctx := rc.Request.Context()
	list := c.service.ListRecipes(ctx, inbound.ListRecipesQuery{Page: rc.Request.URL.Query().Get("page")})

	token, err := rc.Session.Token()
	if err != nil {
		rc.Logger.Error("Failed to issue CSRF token", zap.Error(err))
	}

	view := IndexView{
		Title:      pageTitle,
		Recipes:    list.Recipes,
		Pagination: list.Pagination,
		CSRFToken:  token,
		OldInput:   map[string]string{},
	}

	if rc.IsAjax {
		rc.Render(http.StatusOK, "recetas/recipe_list_fragment", view)
		return
	}

	if flash, ok := rc.Session.PopFlash(session.MessageKey); ok {
		view.Flash = &flash
	}
	view.OldInput = rc.Session.PopOldInput()

	rc.Render(http.StatusOK, "recetas/index", view)
}

// authorize checks method and anti-forgery token of a mutating request
func (c *recipeController) authorize(rc *RequestContext) bool {
	var rejection *errors.AppError
	switch {
	case rc.Request.Method != http.MethodPost:
		rejection = errors.NewMethodNotAllowedError(rc.Request.Method)
	case !rc.Session.ValidToken(rc.Request.PostFormValue("csrf_token")):
		rejection = errors.NewInvalidTokenError()
	default:
		return true
	}

	rc.Logger.Warn("Rejected mutating request",
		zap.String("method", rc.Request.Method),
		zap.String("ip", rc.Request.RemoteAddr),
		zap.Error(rejection),
	)
	if c.metrics != nil {
		c.metrics.CSRFRejected()
	}
	rc.Flash(session.FlashError, msgSecurityError)
	rc.Redirect(indexPath)
	return false
}

func (c *recipeController) save(rc *RequestContext) {
	rc.Request.Body = http.MaxBytesReader(rc.Writer, rc.Request.Body, maxFormBytes)
	if err := rc.Request.ParseForm(); err != nil {
		rc.Logger.Warn("Failed to parse recipe form", zap.Error(err))
		rc.Flash(session.FlashError, msgSecurityError)
		rc.Redirect(indexPath)
		return
	}
	if !c.authorize(rc) {
		return
	}

	form := CreateRecipeForm{
		Title:           strings.TrimSpace(rc.Request.PostFormValue("titulo")),
		Description:     strings.TrimSpace(rc.Request.PostFormValue("descripcion")),
		IngredientsData: rc.Request.PostFormValue("ingredientes_data"),
	}
	if strings.TrimSpace(form.IngredientsData) == "" {
		form.IngredientsData = recipe.EmptyIngredients
	}

	if err := c.validate.Struct(form); err != nil {
		fieldErrs := formErrors(err)
		rc.Logger.Debug("Recipe form rejected", zap.Error(errors.NewValidationErrors(fieldErrs)))
		rc.Flash(session.FlashValidation, strings.Join(fieldErrs.Messages(), " "))
		rc.Session.SetOldInput(form.oldInput())
		rc.Redirect(indexPath)
		return
	}

	created, err := c.service.CreateRecipe(rc.Request.Context(), inbound.CreateRecipeCommand{
		Title:           form.Title,
		Description:     form.Description,
		IngredientsData: form.IngredientsData,
	})
	switch {
	case errors.Is(err, errors.CodeValidationFailed):
		rc.Flash(session.FlashValidation, domainMessage(err))
		rc.Session.SetOldInput(form.oldInput())
	case err != nil:
		rc.Logger.Error("Failed to save recipe",
			zap.String("code", string(errors.GetCode(err))),
			zap.Error(err),
		)
		rc.Flash(session.FlashError, msgSaveFailed)
	default:
		rc.Flash(session.FlashSuccess, fmt.Sprintf(msgSaved, created.Score))
	}

	rc.Redirect(indexPath)
}

func (c *recipeController) delete(rc *RequestContext) {
	rc.Request.Body = http.MaxBytesReader(rc.Writer, rc.Request.Body, maxFormBytes)
	if err := rc.Request.ParseForm(); err != nil {
		rc.Flash(session.FlashError, msgSecurityError)
		rc.Redirect(indexPath)
		return
	}
	if !c.authorize(rc) {
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(rc.Request.PostFormValue("id")), 10, 64)
	if err != nil || id <= 0 {
		rc.Flash(session.FlashError, msgInvalidID)
		rc.Redirect(indexPath)
		return
	}

	err = c.service.DeleteRecipe(rc.Request.Context(), id)
	switch {
	case errors.Is(err, errors.CodeBadRequest):
		rc.Flash(session.FlashError, msgInvalidID)
	case errors.Is(err, errors.CodeRecipeNotFound):
		rc.Flash(session.FlashError, msgRecipeNotFound)
	case err != nil:
		rc.Logger.Error("Failed to delete recipe",
			zap.Int64("recipe_id", id),
			zap.String("code", string(errors.GetCode(err))),
			zap.Error(err),
		)
		rc.Flash(session.FlashError, msgDeleteFailed)
	default:
		rc.Flash(session.FlashSuccess, msgDeleted)
	}

	rc.Redirect(indexPath)
}

// formErrors converts failed form rules into user messages, one per field
func formErrors(err error) errors.ValidationErrors {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.ValidationErrors{{Message: msgInvalidForm}}
	}

	out := make(errors.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "titulo":
		switch fe.Tag() {
		case "required":
			return msgTitleRequired
		case "min":
			return msgTitleTooShort
		default:
			return msgTitleTooLong
		}
	case "descripcion":
		if fe.Tag() == "required" {
			return msgDescRequired
		}
		return msgDescTooLong
	case "ingredientes_data":
		return msgIngredientsTooLong
	}
	return msgInvalidForm
}

// domainMessage maps entity rule violations to the same messages as the
// form rules; the entity also rejects text that only control characters
// made valid at the form layer.
func domainMessage(err error) string {
	switch {
	case stderrors.Is(err, recipe.ErrTitleRequired):
		return msgTitleRequired
	case stderrors.Is(err, recipe.ErrTitleTooShort):
		return msgTitleTooShort
	case stderrors.Is(err, recipe.ErrTitleTooLong):
		return msgTitleTooLong
	case stderrors.Is(err, recipe.ErrDescriptionRequired):
		return msgDescRequired
	case stderrors.Is(err, recipe.ErrDescriptionTooLong):
		return msgDescTooLong
	case stderrors.Is(err, recipe.ErrIngredientsTooLarge):
		return msgIngredientsTooLong
	}
	return msgInvalidForm
}
