package repository

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrInvalidID = errors.New("invalid object id")

func parseObjectID(id string) (bson.ObjectID, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return objectID, nil
}
