package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core/catalog"
)

type catalogApi struct {
	svc      catalog.Service
	validate *validator.Validate
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc catalog.Service, validate *validator.Validate) {
	api := catalogApi{svc: svc, validate: validate}

	admin := []echo.MiddlewareFunc{jwt, adminMiddleware()}
	optJWT := optionalJWT()

	cg := g.Group("/categories")
	cg.GET("", api.queryCategories)
	cg.GET("/:id", api.retrieveCategory)
	cg.GET("/:id/volumes", api.queryCategoryVolumes)
	cg.POST("", api.createCategory, admin...)
	cg.PUT("/:id", api.updateCategory, admin...)
	cg.DELETE("/:id", api.destroyCategory, admin...)

	vg := g.Group("/volumes")
	vg.GET("/:id", api.retrieveVolume)
	vg.GET("/:id/lessons", api.queryVolumeLessons, optJWT)
	vg.POST("", api.createVolume, admin...)
	vg.PUT("/:id", api.updateVolume, admin...)
	vg.DELETE("/:id", api.destroyVolume, admin...)

	lg := g.Group("/lessons")
	lg.GET("", api.queryLessons, optJWT)
	lg.GET("/:id", api.retrieveLesson, optJWT)
	lg.POST("", api.createLesson, admin...)
	lg.PUT("/:id", api.updateLesson, admin...)
	lg.POST("/:id/publish", api.publishLesson, admin...)
	lg.POST("/:id/unpublish", api.unpublishLesson, admin...)
	lg.DELETE("/:id", api.destroyLesson, admin...)
}

// Categories

func (api *catalogApi) createCategory(ctx echo.Context) error {
	var data catalog.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *catalogApi) queryCategories(ctx echo.Context) error {
	cats, err := api.svc.QueryCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []catalog.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

// retrieveCategory accepts an ID or a slug.
func (api *catalogApi) retrieveCategory(ctx echo.Context) error {
	cat, err := api.svc.GetCategory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *catalogApi) queryCategoryVolumes(ctx echo.Context) error {
	cat, err := api.svc.GetCategory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding category")
	}

	vols, err := api.svc.QueryVolumes(ctx.Request().Context(), cat.ID)
	if err != nil {
		return errors.Wrap(err, "querying volumes")
	}
	if vols == nil {
		vols = []catalog.Volume{}
	}
	return ctx.JSON(http.StatusOK, vols)
}

func (api *catalogApi) updateCategory(ctx echo.Context) error {
	var data catalog.UpdateCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.UpdateCategory(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *catalogApi) destroyCategory(ctx echo.Context) error {
	if err := api.svc.DeleteCategory(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Volumes

func (api *catalogApi) createVolume(ctx echo.Context) error {
	var data catalog.NewVolume
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVolume")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	vol, err := api.svc.CreateVolume(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating volume")
	}
	return ctx.JSON(http.StatusCreated, vol)
}

func (api *catalogApi) retrieveVolume(ctx echo.Context) error {
	vol, err := api.svc.GetVolume(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding volume")
	}
	return ctx.JSON(http.StatusOK, vol)
}

func (api *catalogApi) queryVolumeLessons(ctx echo.Context) error {
	vol, err := api.svc.GetVolume(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding volume")
	}

	filter := &catalog.LessonFilter{VolumeID: vol.ID}
	// drafts are only visible to staff
	if claims, err := getContextClaims(ctx); err != nil || !claims.IsStaff {
		filter.PublishedOnly = true
	}

	lessons, err := api.svc.QueryLessons(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []catalog.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *catalogApi) updateVolume(ctx echo.Context) error {
	var data catalog.UpdateVolume
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVolume")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	vol, err := api.svc.UpdateVolume(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating volume")
	}
	return ctx.JSON(http.StatusOK, vol)
}

func (api *catalogApi) destroyVolume(ctx echo.Context) error {
	if err := api.svc.DeleteVolume(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting volume")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lessons

func (api *catalogApi) createLesson(ctx echo.Context) error {
	var data catalog.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lesson, err := api.svc.CreateLesson(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lesson)
}

func (api *catalogApi) queryLessons(ctx echo.Context) error {
	filter := new(catalog.LessonFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []catalog.Lesson{})
	}
	// drafts are only visible to staff
	if claims, err := getContextClaims(ctx); err != nil || !claims.IsStaff {
		filter.PublishedOnly = true
	}

	lessons, err := api.svc.QueryLessons(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []catalog.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *catalogApi) retrieveLesson(ctx echo.Context) error {
	lesson, err := api.svc.GetLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lesson")
	}
	if !lesson.Published {
		if claims, err := getContextClaims(ctx); err != nil || !claims.IsStaff {
			return errors.WithStack(catalog.ErrLessonNotFound)
		}
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *catalogApi) updateLesson(ctx echo.Context) error {
	var data catalog.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lesson, err := api.svc.UpdateLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *catalogApi) destroyLesson(ctx echo.Context) error {
	if err := api.svc.DeleteLesson(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) publishLesson(ctx echo.Context) error {
	lesson, err := api.svc.SetLessonPublished(ctx.Request().Context(), ctx.Param("id"), true)
	if err != nil {
		return errors.Wrap(err, "publishing lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *catalogApi) unpublishLesson(ctx echo.Context) error {
	lesson, err := api.svc.SetLessonPublished(ctx.Request().Context(), ctx.Param("id"), false)
	if err != nil {
		return errors.Wrap(err, "unpublishing lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}
