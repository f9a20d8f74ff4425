package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	apperrors "socialnet/backend/pkg/errors"
)

// ============================================================================
// Search Operations
// ============================================================================

// SearchUsers returns the names of users matching every predicate in the map
// (exact equality, AND conjunction). Predicate keys must come from the fixed
// attribute allow-list and are rejected with InvalidPredicate before any
// query text is built; an empty predicate map is likewise rejected rather
// than treated as match-all.
func (r *Repository) SearchUsers(ctx context.Context, predicates map[string]interface{}) ([]string, error) {
	query, params, err := buildUserSearchQuery(predicates)
	if err != nil {
		return nil, err
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, storeError("search users", err)
	}

	names := []string{}
	for result.Next(ctx) {
		names = append(names, getStringFromRecord(result.Record(), "name"))
	}
	if err := result.Err(); err != nil {
		return nil, storeError("search users", err)
	}

	r.logger.Debug("User search executed",
		zap.Int("predicates", len(predicates)),
		zap.Int("matches", len(names)),
	)
	return names, nil
}

// buildUserSearchQuery constructs the conjunction query. Only allow-listed
// attribute names ever reach the query text; predicate values always travel
// as named parameters. Keys are emitted in sorted order so the generated
// query is deterministic.
func buildUserSearchQuery(predicates map[string]interface{}) (string, map[string]interface{}, error) {
	if len(predicates) == 0 {
		return "", nil, apperrors.NewInvalidPredicate("", "at least one predicate is required")
	}
	if err := validateAttributeKeys(predicates); err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(predicates))
	for key := range predicates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	params := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		conditions = append(conditions, fmt.Sprintf("u.%s = $%s", key, key))
		params[key] = predicates[key]
	}

	query := fmt.Sprintf(
		"MATCH (u:User) WHERE %s RETURN u.name AS name",
		strings.Join(conditions, " AND "),
	)
	return query, params, nil
}
