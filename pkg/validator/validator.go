package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9]+(?:[_-][a-z0-9]+)*$`)
	nationalIDPattern = regexp.MustCompile(`^[0-9.\-\s]*[0-9][0-9.\-\s]*$`)
)

// Tags lists the custom validation tags this package provides.
var Tags = map[string]playground.Func{
	"slug":       Slug,
	"nationalid": NationalID,
}

var registerOnce sync.Once

// RegisterBindingValidators installs the custom tags on gin's validator and
// reports field names by their json tag. It runs once per process.
func RegisterBindingValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			return
		}
		err = Register(v)
	})
	return err
}

// Register installs the custom tags on v.
func Register(v *playground.Validate) error {
	for tag, fn := range Tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

// Slug accepts lower-case identifiers such as "vida_plena".
func Slug(fl playground.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// NationalID accepts a formatted or bare numeric document number such as
// "000.000.000-00". Checksums are not verified.
func NationalID(fl playground.FieldLevel) bool {
	return nationalIDPattern.MatchString(fl.Field().String())
}
