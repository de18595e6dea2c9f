package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrMissingID     = errors.New("id required")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrInvalidStake  = errors.New("stake must be positive")
	ErrInvalidOdds   = errors.New("odds must be positive")
	ErrInvalidStatus = errors.New("unknown status")
	ErrNotFound      = errors.New("bet not found")

	// ErrCorruptLedger só aparece em log: o blob ilegível é descartado e o ledger inicia vazio.
	ErrCorruptLedger = errors.New("corrupt ledger blob")
)

// ValidationError indica entrada rejeitada antes de chegar ao ledger.
type ValidationError struct {
	ID  string
	Err error
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return "validation: " + e.Err.Error()
	}
	return fmt.Sprintf("validation: bet %s: %v", e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation informa se err (ou algum erro embrulhado) é um ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
