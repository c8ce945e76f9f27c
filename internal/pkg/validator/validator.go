package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate    *validator.Validate
	mobileRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

func init() {
	validate = validator.New()

	// Report json field names instead of Go struct field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// mobile - 10 digit Indian mobile number
	_ = validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRegex.MatchString(fl.Field().String())
	})
}

// Validate - валидация структуры по тегам `validate`
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// FieldErrors flattens validation errors into field -> failed tag.
func FieldErrors(err error) map[string]interface{} {
	result := make(map[string]interface{})
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return result
	}
	for _, fe := range verrs {
		if fe.Param() != "" {
			result[fe.Field()] = fe.Tag() + "=" + fe.Param()
			continue
		}
		result[fe.Field()] = fe.Tag()
	}
	return result
}
