// Package validation checks graph input documents and pipeline
// configuration before scoring runs.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNodeIDLength = 128
	MaxEdgeType     = 50
	MaxExtraKeys    = 100
	MaxExtraKeyLen  = 100
	MaxBatchSize    = 1_000_000

	// Regular expressions
	nodeIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_.:@-]+$`)
	extraKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// NodeDocument is the wire form of a graph node.
type NodeDocument struct {
	ID                   string             `json:"id" validate:"required,min=1,max=128"`
	Stake                float64            `json:"stake,omitempty" validate:"omitempty,min=0"`
	PaymentHistory       float64            `json:"paymentHistory,omitempty" validate:"omitempty,min=0"`
	VerifiedEndorsements int                `json:"verifiedEndorsements,omitempty" validate:"omitempty,min=0"`
	ContentQuality       float64            `json:"contentQuality,omitempty" validate:"omitempty,min=0,max=100"`
	ActivityRecency      string             `json:"activityRecency,omitempty"`
	MinorityGroup        bool               `json:"minorityGroup,omitempty"`
	Extra                map[string]float64 `json:"extra,omitempty" validate:"omitempty,max=100"`
}

// EdgeDocument is the wire form of a graph edge.
type EdgeDocument struct {
	Source              string  `json:"source" validate:"required,min=1,max=128"`
	Target              string  `json:"target" validate:"required,min=1,max=128"`
	Weight              float64 `json:"weight" validate:"min=0,max=1"`
	Type                string  `json:"type" validate:"required,min=1,max=50"`
	Timestamp           string  `json:"timestamp" validate:"required"`
	EndorsementStrength float64 `json:"endorsementStrength,omitempty" validate:"omitempty,min=0,max=1"`
	StakeBacked         bool    `json:"stakeBacked,omitempty"`
	PaymentAmount       float64 `json:"paymentAmount,omitempty" validate:"omitempty,min=0"`
	Verified            bool    `json:"verified,omitempty"`
}

// ValidateNodeDocument validates a single node document.
func ValidateNodeDocument(doc *NodeDocument) error {
	if doc == nil {
		return errors.New("node document cannot be nil")
	}

	if err := validate.Struct(doc); err != nil {
		return formatValidationError(err)
	}

	if !nodeIDPattern.MatchString(doc.ID) {
		return fmt.Errorf("ID: '%s' contains invalid characters", doc.ID)
	}

	if len(doc.Extra) > MaxExtraKeys {
		return fmt.Errorf("Extra: maximum %d keys allowed, got %d", MaxExtraKeys, len(doc.Extra))
	}
	for key := range doc.Extra {
		if err := ValidateExtraKey(key); err != nil {
			return fmt.Errorf("Extra: %w", err)
		}
	}

	return nil
}

// ValidateEdgeDocument validates a single edge document.
func ValidateEdgeDocument(doc *EdgeDocument) error {
	if doc == nil {
		return errors.New("edge document cannot be nil")
	}

	if err := validate.Struct(doc); err != nil {
		return formatValidationError(err)
	}

	if !nodeIDPattern.MatchString(doc.Source) {
		return fmt.Errorf("Source: '%s' contains invalid characters", doc.Source)
	}
	if !nodeIDPattern.MatchString(doc.Target) {
		return fmt.Errorf("Target: '%s' contains invalid characters", doc.Target)
	}

	return nil
}

// ValidateBatchSize validates the number of documents in one ingest.
func ValidateBatchSize(size int) error {
	if size < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", size)
	}
	if size > MaxBatchSize {
		return fmt.Errorf("batch size must not exceed %d, got %d", MaxBatchSize, size)
	}
	return nil
}

// ValidateExtraKey validates a metadata extension key.
func ValidateExtraKey(key string) error {
	if key == "" {
		return errors.New("extra key cannot be empty")
	}
	if len(key) > MaxExtraKeyLen {
		return fmt.Errorf("extra key '%s' exceeds maximum length of %d characters", key, MaxExtraKeyLen)
	}
	if !extraKeyPattern.MatchString(key) {
		return fmt.Errorf("extra key '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", key)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
