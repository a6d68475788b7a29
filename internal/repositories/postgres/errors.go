package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bloodconnect/internal/utils"
)

func translateError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, utils.ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, utils.ErrStoreUnavailable, err)
}
