package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/timeutil"

	"github.com/go-playground/validator/v10"
)

const (
	MsgCheckInRequired   = "Check-in date is required"
	MsgCheckOutRequired  = "Check-out date is required"
	MsgCheckInPast       = "Check-in date must be today or in the future"
	MsgCheckOutPast      = "Check-out date must be in the future"
	MsgCheckOutOrder     = "Check-out date must be after check-in date"
	MsgNoRooms           = "At least one room must be selected"
	MsgRoomTypeRequired  = "Please select a room type"
	MsgMinRooms          = "At least 1 room is required"
	MsgMaxRooms          = "Maximum 10 rooms allowed"
	MsgDuplicateRoomType = "Cannot select the same room type multiple times"
	MsgHotelRequired     = "Hotel is required"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors into the map carried by a validation AppError.
func (v ValidationErrors) Details() map[string]any {
	out := make(map[string]any, len(v))
	for _, err := range v {
		if _, exists := out[err.Field]; !exists {
			out[err.Field] = err.Message
		}
	}
	return out
}

type BookingValidator struct {
	validate *validator.Validate
	loc      *time.Location
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger, loc *time.Location) *BookingValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if loc == nil {
		loc = time.Local
	}

	log.Info("Booking validator initialized successfully", "timezone", loc.String())

	return &BookingValidator{
		validate: v,
		loc:      loc,
		logger:   log,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Validate checks a booking candidate against the form rules as of now. All
// failures are returned together.
func (v *BookingValidator) Validate(req *model.CreateBookingRequest, now time.Time) error {
	var errs ValidationErrors

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		errs = append(errs, v.translateValidationErrors(validationErrs)...)
	}

	errs = append(errs, v.validateDates(req.CheckIn, req.CheckOut, now)...)

	if hasDuplicateRoomTypes(req.RoomSelections) {
		errs = append(errs, ValidationError{Field: "roomSelections", Message: MsgDuplicateRoomType})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) validateDates(checkIn, checkOut, now time.Time) ValidationErrors {
	var errs ValidationErrors

	if checkIn.IsZero() {
		errs = append(errs, ValidationError{Field: "checkIn", Message: MsgCheckInRequired})
	}
	if checkOut.IsZero() {
		errs = append(errs, ValidationError{Field: "checkOut", Message: MsgCheckOutRequired})
	}
	if len(errs) > 0 {
		return errs
	}

	today := timeutil.DateOnly(now, v.loc)
	if checkIn.Before(today) {
		errs = append(errs, ValidationError{Field: "checkIn", Message: MsgCheckInPast})
	}
	if !checkOut.After(today) {
		errs = append(errs, ValidationError{Field: "checkOut", Message: MsgCheckOutPast})
	}
	if !checkOut.After(checkIn) {
		errs = append(errs, ValidationError{Field: "checkOut", Message: MsgCheckOutOrder})
	}
	return errs
}

func hasDuplicateRoomTypes(selections []model.RoomSelection) bool {
	seen := make(map[string]struct{}, len(selections))
	for _, sel := range selections {
		if _, dup := seen[sel.RoomType]; dup {
			return true
		}
		seen[sel.RoomType] = struct{}{}
	}
	return false
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := fieldPath(err.Namespace())
		message := err.Error()

		switch {
		case err.StructField() == "RoomSelections" && err.Tag() == "min":
			field, message = "roomSelections", MsgNoRooms
		case err.StructField() == "RoomType" && err.Tag() == "required":
			message = MsgRoomTypeRequired
		case err.StructField() == "NumRooms" && err.Tag() == "min":
			message = MsgMinRooms
		case err.StructField() == "NumRooms" && err.Tag() == "max":
			message = MsgMaxRooms
		case err.StructField() == "HotelID":
			message = MsgHotelRequired
		case err.Tag() == "required":
			message = fmt.Sprintf("%s is required", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath drops the root struct name from a validator namespace,
// "CreateBookingRequest.roomSelections[0].numRooms" -> "roomSelections[0].numRooms".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
