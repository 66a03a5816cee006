package burger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DeliveryFastest = "fastest"
	DeliveryRegular = "regular"
)

// ContactData is the customer record sent with an order.
type ContactData struct {
	Name           string `json:"name" bson:"name" validate:"required,max=100"`
	Street         string `json:"street" bson:"street" validate:"required,max=200"`
	ZipCode        string `json:"zipCode" bson:"zip_code" validate:"required,len=5"`
	Country        string `json:"country" bson:"country" validate:"required,max=100"`
	Email          string `json:"email" bson:"email" validate:"required,email"`
	DeliveryMethod string `json:"deliveryMethod" bson:"delivery_method" validate:"required,oneof=fastest regular"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims every field and defaults the delivery method.
func (c *ContactData) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Street = strings.TrimSpace(c.Street)
	c.ZipCode = strings.TrimSpace(c.ZipCode)
	c.Country = strings.TrimSpace(c.Country)
	c.Email = strings.TrimSpace(c.Email)
	c.DeliveryMethod = strings.ToLower(strings.TrimSpace(c.DeliveryMethod))
	if c.DeliveryMethod == "" {
		c.DeliveryMethod = DeliveryFastest
	}
}

// Validate normalizes c and reports the first invalid field.
func (c *ContactData) Validate() error {
	c.Normalize()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return toValidationError(fieldErrs[0])
}

func toValidationError(fe validator.FieldError) ValidationError {
	field := jsonFieldName(fe.StructField())
	switch fe.Tag() {
	case "required":
		return ValidationError{Field: field, Message: field + " is required"}
	case "len":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())}
	case "max":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %s characters", field, fe.Param())}
	case "email":
		return ValidationError{Field: field, Message: "invalid email address"}
	case "oneof":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be one of: %s", field, fe.Param())}
	default:
		return ValidationError{Field: field, Message: "invalid value"}
	}
}

func jsonFieldName(structField string) string {
	switch structField {
	case "ZipCode":
		return "zipCode"
	case "DeliveryMethod":
		return "deliveryMethod"
	default:
		return strings.ToLower(structField)
	}
}
