package catalog

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/keneanapp/kenean/core"
)

var (
	lessonTypeTag  = "lessontype"
	lessonTypeText = "lesson type must be VIDEO or BOOK"
)

// InitValidators registers this package's custom validators; called once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(lessonTypeTag, lessonTypeValidation)
	core.RegisterCustomTranslation(validate, translator, lessonTypeTag, lessonTypeText)
}

func lessonTypeValidation(fl validator.FieldLevel) bool {
	return LessonType(fl.Field().String()).Valid()
}
