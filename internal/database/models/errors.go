package models

import (
	"database/sql"
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/voxguard/voxguard/internal/voice"
)

const pgUniqueViolation = "23505"

// translateConflict maps a unique-constraint violation to the domain
// conflict error. Storage errors are never surfaced raw for this case.
func translateConflict(err error) error {
	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) && pgerr.Field('C') == pgUniqueViolation {
		return voice.ErrConflict
	}

	return err
}

// translateNotFound maps an empty result to the domain not-found error.
func translateNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return voice.ErrNotFound
	}

	return err
}
