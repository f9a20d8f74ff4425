package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "socialnet/backend/pkg/errors"
)

// ============================================================================
// Recommendation Operations
// ============================================================================

// RecommendFriends computes friend-of-friend candidates for a user via an
// explicit breadth-first walk bounded to depth 2: one query gathers the
// direct friends, a second expands one more hop from that frontier, and the
// exclusion filtering (never the origin, never an existing direct friend)
// plus set-based deduplication happen here rather than inside a single query
// pattern. Both hops run in the same read transaction, so the exclusion set
// and the candidate set come from one consistent graph snapshot even while
// friendships change concurrently. Result order is whatever the store
// traversal produced.
func (r *Repository) RecommendFriends(ctx context.Context, userName string) ([]string, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	res, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		// Hop 1: direct friends.
		result, err := tx.Run(ctx, `
			MATCH (u:User {name: $userName})
			OPTIONAL MATCH (u)-[:FRIENDS_WITH]-(f:User)
			RETURN u.name AS name, collect(DISTINCT f.name) AS friends
		`, map[string]interface{}{"userName": userName})
		if err != nil {
			return nil, err
		}

		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewUserNotFound(userName)
		}

		friends := getStringSliceFromRecord(result.Record(), "friends")
		if len(friends) == 0 {
			return []string{}, nil
		}

		// Hop 2: friends of the frontier.
		result, err = tx.Run(ctx, `
			MATCH (f:User)-[:FRIENDS_WITH]-(fof:User)
			WHERE f.name IN $friends
			RETURN DISTINCT fof.name AS name
		`, map[string]interface{}{"friends": friends})
		if err != nil {
			return nil, err
		}

		var candidates []string
		for result.Next(ctx) {
			candidates = append(candidates, getStringFromRecord(result.Record(), "name"))
		}
		if err := result.Err(); err != nil {
			return nil, err
		}

		return excludeKnown(userName, friends, candidates), nil
	})
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		return nil, storeError("recommend friends", err)
	}

	recommendations := res.([]string)
	r.logger.Debug("Friend recommendations computed",
		zap.String("user", userName),
		zap.Int("recommendations", len(recommendations)),
	)
	return recommendations, nil
}

// excludeKnown reduces the second-hop candidates to the recommendation set:
// duplicates collapse, the origin user is dropped, and so is anyone already a
// direct friend of the origin.
func excludeKnown(origin string, friends, candidates []string) []string {
	known := make(map[string]bool, len(friends)+1)
	known[origin] = true
	for _, f := range friends {
		known[f] = true
	}

	seen := make(map[string]bool, len(candidates))
	result := []string{}
	for _, c := range candidates {
		if c == "" || known[c] || seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result
}
