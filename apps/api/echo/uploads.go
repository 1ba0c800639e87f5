package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
)

type uploadApi struct {
	mediaSvc     core.MediaService
	translateSvc core.Translator
	validate     *validator.Validate
}

func registerUploadAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	mediaSvc core.MediaService,
	translateSvc core.Translator,
	validate *validator.Validate,
) {
	api := uploadApi{mediaSvc: mediaSvc, translateSvc: translateSvc, validate: validate}

	staff := []echo.MiddlewareFunc{jwt, staffMiddleware()}

	g.POST("/uploads", api.upload, staff...)
	g.POST("/translate", api.translate, staff...)
}

const maxUploadSize = 10 << 20 // 10MB

var (
	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	allowedDocumentTypes = map[string]bool{
		"application/pdf": true,
	}
)

func (api *uploadApi) upload(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
	}
	if fileHdr.Size > maxUploadSize {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "File size must be less than 10MB"})
	}

	kind := ctx.FormValue("type")
	if kind == "" {
		kind = "image"
	}
	contentType := fileHdr.Header.Get("Content-Type")
	switch kind {
	case "image":
		if !allowedImageTypes[contentType] {
			return core.NewValidationError(nil, core.FieldError{
				Field: "file", Error: "Invalid image type. Allowed types: JPEG, PNG, GIF, WebP",
			})
		}
	case "document":
		if !allowedDocumentTypes[contentType] {
			return core.NewValidationError(nil, core.FieldError{
				Field: "file", Error: "Invalid document type. Allowed types: PDF",
			})
		}
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "type", Error: "must be one of: image, document"})
	}

	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	res, err := api.mediaSvc.Upload(ctx.Request().Context(), file, fileHdr.Filename)
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}
	return ctx.JSON(http.StatusCreated, res)
}

type TranslateRequest struct {
	Text       string `json:"text" validate:"required,max=10000"`
	SourceLang string `json:"source_lang" validate:"required,oneof=en am gez"`
	TargetLang string `json:"target_lang" validate:"required,oneof=en am gez"`
}

func (tr *TranslateRequest) Validate(validate *validator.Validate) error {
	tr.Text = core.CleanString(tr.Text)
	return validate.Struct(tr)
}

type TranslateResponse struct {
	Translation string `json:"translation"`
}

func (api *uploadApi) translate(ctx echo.Context) error {
	var data TranslateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TranslateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	translation, err := api.translateSvc.Translate(ctx.Request().Context(), data.Text, data.SourceLang, data.TargetLang)
	if err != nil {
		return errors.Wrap(err, "translating text")
	}
	return ctx.JSON(http.StatusOK, TranslateResponse{Translation: translation})
}
