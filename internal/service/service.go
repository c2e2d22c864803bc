// Package service implements the application's business rules on top of the
// repository layer. Services validate input, apply the policy package's
// visibility and mutation rules, and translate storage errors into the
// application error taxonomy.
package service

import (
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
)

// notFoundOr maps a missing-row error to a typed NotFound and passes
// everything else through unchanged.
func notFoundOr(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}
