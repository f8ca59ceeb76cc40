package membership

import (
	"errors"
	"fmt"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

var (
	ErrDuplicatePhone   = errors.New("phone already registered")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyBanned    = errors.New("already banned")
	ErrInvalidInput     = errors.New("invalid input")
)

// DuplicatePhoneError reports which existing member owns a phone.
// GroupName is only set when a client collides with another client.
type DuplicatePhoneError struct {
	Phone     string
	Incoming  model.EntityType
	Existing  model.EntityType
	GroupName string
}

func (e *DuplicatePhoneError) Error() string {
	switch {
	case e.Existing == model.EntityClient && e.Incoming == model.EntityClient:
		return fmt.Sprintf("phone %s already exists in group %s", e.Phone, e.GroupName)
	case e.Existing == model.EntityClient:
		return fmt.Sprintf("phone %s is already registered as a client", e.Phone)
	default:
		return fmt.Sprintf("phone %s is already registered as a driver", e.Phone)
	}
}

func (e *DuplicatePhoneError) Is(target error) bool {
	return target == ErrDuplicatePhone
}

// NotFoundError names the kind and id of a missing entity
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func operatorNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrOperatorNotFound, id)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
