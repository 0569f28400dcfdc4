package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	MsgNameRequired        = "Hotel name is required"
	MsgLocationRequired    = "Location is required"
	MsgImageRequired       = "Image URL is required"
	MsgImageInvalid        = "Image must be a valid URL"
	MsgPricePositive       = "Price must be a positive number"
	MsgDescriptionRequired = "Description is required"
)

type HotelValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewHotelValidator(log *logger.Logger) *HotelValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &HotelValidator{validate: v, logger: log}
}

// Validate returns a 422-shaped AppError listing every failing field.
func (v *HotelValidator) Validate(req *model.CreateHotelRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return apperrors.InvalidInput(err.Error())
	}

	details := make(map[string]any, len(errs))
	first := ""
	for _, fe := range errs {
		msg := hotelMessage(fe)
		if first == "" {
			first = msg
		}
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		details[field] = msg
	}
	return apperrors.Validation(first, details)
}

func hotelMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		return MsgNameRequired
	case "Location":
		return MsgLocationRequired
	case "Image":
		if fe.Tag() == "url" {
			return MsgImageInvalid
		}
		return MsgImageRequired
	case "Price":
		return MsgPricePositive
	case "Description":
		return MsgDescriptionRequired
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
