package relation

import (
	"strings"

	"github.com/Luismorlan/eventmux/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	duplicateKeyMessages = []string{
		"UNIQUE constraint failed",
		"duplicate key value violates unique constraint",
	}
	foreignKeyMessages = []string{
		"FOREIGN KEY constraint failed",
		"violates foreign key constraint",
	}
)

// TranslateError maps store errors onto the model error taxonomy. Errors that
// already belong to the taxonomy, and unknown errors, are returned unchanged.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrAlreadyExists),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrInvalidSelfReference),
		errors.Is(err, model.ErrUnauthenticated):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.WithMessage(model.ErrAlreadyExists, err.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrRecordNotFound):
		return errors.WithMessage(model.ErrNotFound, err.Error())
	}

	// Drivers without error translation still carry the constraint in the
	// message.
	msg := err.Error()
	for _, m := range duplicateKeyMessages {
		if strings.Contains(msg, m) {
			return errors.WithMessage(model.ErrAlreadyExists, msg)
		}
	}
	for _, m := range foreignKeyMessages {
		if strings.Contains(msg, m) {
			return errors.WithMessage(model.ErrNotFound, msg)
		}
	}
	return err
}
