package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	// Register custom validation tags
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	err := v.RegisterValidation("member_role", validateMemberRole)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("invite_status", validateInviteStatus)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("acquisition_method", validateAcquisitionMethod)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("acquisition_status", validateAcquisitionStatus)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("withdrawal_status", validateWithdrawalStatus)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("permission_flag", validatePermissionFlag)
	if err != nil {
		return nil
	}

	return &CustomValidator{validator: v}
}

// Custom validation functions
func validateMemberRole(fl playgroundvalidator.FieldLevel) bool {
	role := fl.Field().String()
	return role == "OWNER" || role == "ADMIN" || role == "MEMBER"
}

func validateInviteStatus(fl playgroundvalidator.FieldLevel) bool {
	status := fl.Field().String()
	return status == "PENDING" || status == "ACCEPTED" || status == "REJECTED"
}

func validateAcquisitionMethod(fl playgroundvalidator.FieldLevel) bool {
	method := fl.Field().String()
	return method == "FREE" || method == "PAID" || method == "PASSWORD" || method == "TWITCH_SUB"
}

func validateAcquisitionStatus(fl playgroundvalidator.FieldLevel) bool {
	status := fl.Field().String()
	return status == "ACTIVE" || status == "SUSPENDED" || status == "REVOKED"
}

func validateWithdrawalStatus(fl playgroundvalidator.FieldLevel) bool {
	status := fl.Field().String()
	return status == "PENDING" || status == "APPROVED" || status == "DENIED" || status == "PAID"
}

func validatePermissionFlag(fl playgroundvalidator.FieldLevel) bool {
	flag := fl.Field().String()
	validFlags := map[string]bool{
		"modpack_view":                     true,
		"modpack_modify":                   true,
		"modpack_manage_versions":          true,
		"modpack_publish":                  true,
		"modpack_delete":                   true,
		"modpack_manage_access":            true,
		"publisher_manage_categories_tags": true,
		"publisher_view_stats":             true,
	}
	return validFlags[flag]
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// PublisherRequest Request validation structs based on models
type PublisherRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

type MemberRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

type ModpackRequest struct {
	PublisherID       string   `json:"publisherId" validate:"required,uuid"`
	Name              string   `json:"name" validate:"required,min=2"`
	Summary           string   `json:"summary"`
	AcquisitionMethod string   `json:"acquisitionMethod" validate:"omitempty,acquisition_method"`
	Password          string   `json:"password" validate:"required_if=AcquisitionMethod PASSWORD"`
	PriceCents        int64    `json:"priceCents" validate:"required_if=AcquisitionMethod PAID,omitempty,min=1"`
	TwitchCreatorIDs  []string `json:"twitchCreatorIds" validate:"required_if=AcquisitionMethod TWITCH_SUB"`
}

type VersionRequest struct {
	Version   string `json:"version" validate:"required"`
	Changelog string `json:"changelog"`
}

type AcquireRequest struct {
	Password string `json:"password"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

type WithdrawalRequestInput struct {
	AmountCents int64  `json:"amountCents" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}
