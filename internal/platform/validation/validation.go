// Pacote validation embrulha o validator/v10 com mensagens e erro sentinela unicos.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid marca qualquer falha de validacao de entrada.
var ErrInvalid = errors.New("dados invalidos")

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// fieldName usa a tag json (ou koanf) para as mensagens casarem com o payload.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "koanf"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Struct valida as tags `validate` e devolve um erro que satisfaz errors.Is(err, ErrInvalid).
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(parts, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s obrigatorio", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s deve ser um de [%s]", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s excede o limite de %s", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s deve ser %s %s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s falhou na regra %s", fe.Field(), fe.Tag())
	}
}
