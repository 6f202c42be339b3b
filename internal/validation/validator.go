package validation

import (
	"reflect"
	"regexp"
	"strings"

	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	dateKeyTag  = "datekey"
	dateKeyText = "{0} must be a date in YYYY-MM-DD format"

	deliveryStatusTag  = "deliverystatus"
	deliveryStatusText = "{0} must be one of Pending, Delivered, Delayed, Cancelled"

	clockTag   = "clock"
	clockText  = "{0} must be a time in HH:MM format"
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Validator checks request payloads against their validate tags and reports
// failures as VALIDATION_ERROR with readable messages
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New instantiates the validator with the custom tags registered
func New() *Validator {
	validate := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate, translator: translator}

	_ = validate.RegisterValidation(dateKeyTag, dateKeyValidation)
	v.registerTranslation(dateKeyTag, dateKeyText)
	_ = validate.RegisterValidation(deliveryStatusTag, deliveryStatusValidation)
	v.registerTranslation(deliveryStatusTag, deliveryStatusText)
	_ = validate.RegisterValidation(clockTag, clockValidation)
	v.registerTranslation(clockTag, clockText)
	v.registerTranslation(requiredTag, requiredText, true)

	return v
}

// registerTranslation registers a custom translation for the specified validation tag.
func (v *Validator) registerTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. Field errors are joined into one message, in field
// order.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validation failed")
	}
	return errors.ValidationError(strings.Join(v.Messages(fieldErrs), "; "))
}

// Messages translates each field error
func (v *Validator) Messages(errs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Translate(v.translator))
	}
	return msgs
}

// Engine exposes the underlying validator, e.g. to install it as gin's binder
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Custom Global Validators

func dateKeyValidation(fl validator.FieldLevel) bool {
	_, err := core.ParseDateKey(fl.Field().String())
	return err == nil
}

func deliveryStatusValidation(fl validator.FieldLevel) bool {
	return models.DeliveryStatus(fl.Field().String()).Valid()
}

func clockValidation(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}
