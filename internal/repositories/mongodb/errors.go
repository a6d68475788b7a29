package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"bloodconnect/internal/utils"
)

// translateError maps driver errors onto the service sentinels.
func translateError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, utils.ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, utils.ErrStoreUnavailable, err)
}
