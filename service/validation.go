package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"projector/models"
	"projector/projection"

	"github.com/go-playground/validator/v10"
)

// inputValidate checks analysis input. Initialized in init() with custom validators.
var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors match the request body
	inputValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = inputValidate.RegisterValidation("finite", validateFinite)
}

// validateFinite rejects NaN and infinities
func validateFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	default:
		return true
	}
}

// validateInput checks the input and returns the first failure as a *ValidationError
func validateInput(in models.AnalysisInput, maxWeeks int) error {
	if err := validationError("input", inputValidate.Struct(in)); err != nil {
		return err
	}
	return validateWeeksCap(in.ProjectionWeeks, maxWeeks)
}

// validateUpdate checks the fields present in an update on their own,
// before the stored analysis is read
func validateUpdate(update models.AnalysisUpdate, maxWeeks int) error {
	if err := validationError("update", inputValidate.Struct(update)); err != nil {
		return err
	}
	if update.ProjectionWeeks != nil {
		return validateWeeksCap(*update.ProjectionWeeks, maxWeeks)
	}
	return nil
}

func validateWeeksCap(weeks, maxWeeks int) error {
	if maxWeeks > 0 && weeks > maxWeeks {
		return &ValidationError{
			Field:  "projection_weeks",
			Reason: fmt.Sprintf("must be at most %d", maxWeeks),
		}
	}
	return nil
}

// validateField checks a single value against validator tags
func validateField(field string, value any, tag string) error {
	err := validationError(field, inputValidate.Var(value, tag))
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		validationErr.Field = field
	}
	return err
}

// validationError converts a validator result into the first failing field
func validationError(field string, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldError(fieldErrs[0])
	}
	return &ValidationError{Field: field, Reason: err.Error()}
}

func fieldError(fe validator.FieldError) *ValidationError {
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "finite":
		reason = "must be a finite number"
	case "min":
		if fe.Kind() == reflect.String {
			reason = fmt.Sprintf("must be at least %s characters", fe.Param())
		} else {
			reason = fmt.Sprintf("must be at least %s", fe.Param())
		}
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		reason = "must be a plain email address"
	case "gte":
		reason = fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		reason = fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		reason = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}

// projectionParams converts validated input into engine parameters
func projectionParams(in models.AnalysisInput) projection.Params {
	params := projection.Params{
		Principal:     in.Principal,
		WeeklyRatePct: in.WeeklyRatePct,
		Weeks:         in.ProjectionWeeks,
		TaxRatePct:    in.TaxRatePct,
	}
	if in.DepositFrequency != nil {
		params.Deposit = &projection.Recurring{Amount: in.DepositAmount, EveryWeeks: *in.DepositFrequency}
	}
	if in.WithdrawalFrequency != nil {
		params.Withdrawal = &projection.Recurring{Amount: in.WithdrawalAmount, EveryWeeks: *in.WithdrawalFrequency}
	}
	return params
}

// engineError maps engine rejections onto validation errors
func engineError(err error) error {
	switch {
	case errors.Is(err, projection.ErrInvalidWeeks):
		return &ValidationError{Field: "projection_weeks", Reason: err.Error()}
	case errors.Is(err, projection.ErrInvalidFrequency):
		field := "deposit_frequency"
		if strings.HasPrefix(err.Error(), "withdrawal") {
			field = "withdrawal_frequency"
		}
		return &ValidationError{Field: field, Reason: err.Error()}
	case errors.Is(err, projection.ErrNonFinite):
		return &ValidationError{Field: "projection", Reason: err.Error()}
	default:
		return err
	}
}

// validateRange rejects a time range whose end precedes its start
func validateRange(field string, from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return &ValidationError{Field: field, Reason: "end must not precede start"}
	}
	return nil
}
