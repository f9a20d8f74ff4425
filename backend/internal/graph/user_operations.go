package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "socialnet/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// RegisterUser creates a new user node. Names are the external key of the
// graph, so registration of an already-taken name fails with DuplicateEntity;
// the existence check and the create run in the same write transaction.
func (r *Repository) RegisterUser(ctx context.Context, name string, age int64, location string, interests []string) (*User, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	if interests == nil {
		interests = []string{}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		existing, err := tx.Run(ctx, `
			MATCH (u:User {name: $name})
			RETURN u.name AS name
		`, map[string]interface{}{"name": name})
		if err != nil {
			return nil, err
		}
		if existing.Next(ctx) {
			return nil, apperrors.NewDuplicateUser(name)
		}
		if err := existing.Err(); err != nil {
			return nil, err
		}

		result, err := tx.Run(ctx, `
			CREATE (u:User {name: $name, age: $age, location: $location, interests: $interests})
			RETURN u.name AS name
		`, map[string]interface{}{
			"name":      name,
			"age":       age,
			"location":  location,
			"interests": interests,
		})
		if err != nil {
			return nil, err
		}
		return result.Single(ctx)
	})
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicateEntity) {
			return nil, err
		}
		return nil, storeError("register user", err)
	}

	r.logger.Info("User registered",
		zap.String("name", name),
		zap.String("location", location),
	)

	return &User{Name: name, Age: age, Location: location, Interests: interests}, nil
}

// UpdateUserInfo sets an arbitrary set of attributes on a user node. Keys are
// validated against the attribute allow-list first; the name itself is the
// external key and cannot be rewritten. Matching zero users is surfaced as
// NotFound, never silently ignored.
func (r *Repository) UpdateUserInfo(ctx context.Context, name string, props map[string]interface{}) error {
	if len(props) == 0 {
		return apperrors.NewInvalidPredicate("", "no attributes to update")
	}
	if err := validateAttributeKeys(props, "name"); err != nil {
		return err
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $name})
		SET u += $props
		RETURN u.name AS name
	`, map[string]interface{}{
		"name":  name,
		"props": props,
	})
	if err != nil {
		return storeError("update user info", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("update user info", err)
		}
		return apperrors.NewUserNotFound(name)
	}

	r.logger.Info("User updated", zap.String("name", name), zap.Int("attributes", len(props)))
	return nil
}

// GetUser retrieves a user node by name
func (r *Repository) GetUser(ctx context.Context, name string) (*User, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $name})
		RETURN u.name AS name, u.age AS age, u.location AS location, u.interests AS interests
	`, map[string]interface{}{"name": name})
	if err != nil {
		return nil, storeError("get user", err)
	}

	if result.Next(ctx) {
		record := result.Record()
		return &User{
			Name:      getStringFromRecord(record, "name"),
			Age:       getInt64FromRecord(record, "age"),
			Location:  getStringFromRecord(record, "location"),
			Interests: getStringSliceFromRecord(record, "interests"),
		}, nil
	}
	if err := result.Err(); err != nil {
		return nil, storeError("get user", err)
	}

	return nil, apperrors.NewUserNotFound(name)
}
