package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with the workflow's custom tags
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("marks_range", validateMarksTag)
	validate.RegisterValidation("attendance_status", validateAttendanceStatusTag)
	validate.RegisterValidation("workflow_kind", validateWorkflowKindTag)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateMarksTag(fl validator.FieldLevel) bool {
	return ValidateField(models.FieldMarks, fl.Field().String())
}

func validateAttendanceStatusTag(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return ValidateField(models.FieldStatus, value)
}

func validateWorkflowKindTag(fl validator.FieldLevel) bool {
	return models.WorkflowKind(fl.Field().String()).IsValid()
}
