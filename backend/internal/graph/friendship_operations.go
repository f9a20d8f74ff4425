package graph

import (
	"context"

	"go.uber.org/zap"
	apperrors "socialnet/backend/pkg/errors"
)

// ============================================================================
// Friendship Operations
// ============================================================================
//
// Per ordered pair (A,B) the graph is in one of four states: no relationship,
// A->B pending, B->A pending, or friends. FRIENDS_WITH is always kept as a
// symmetric pair of edges created and removed together; a pending
// OUTGOING_REQUEST and a friendship never coexist for the same pair because
// acceptance deletes the request and merges both friendship edges in a single
// transaction.

// SendFriendRequest creates a pending OUTGOING_REQUEST edge. MERGE semantics
// make repeat calls idempotent: at most one pending edge exists per ordered
// pair. Fails with NotFound when either user is missing.
func (r *Repository) SendFriendRequest(ctx context.Context, from, to string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:User {name: $from}), (b:User {name: $to})
		MERGE (a)-[:OUTGOING_REQUEST]->(b)
		RETURN a.name AS from
	`, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return storeError("send friend request", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("send friend request", err)
		}
		return r.missingUser(ctx, from, to)
	}

	r.logger.Info("Friend request sent", zap.String("from", from), zap.String("to", to))
	return nil
}

// AcceptFriendRequest consumes a pending request and establishes friendship
// in both directions. The delete and both merges run as one statement in one
// transaction, so a concurrent duplicate accept either observes the request
// already gone (NoSuchRequest) or completes it exactly once. With no pending
// request the graph is left unmutated and NoSuchRequest is returned.
func (r *Repository) AcceptFriendRequest(ctx context.Context, from, to string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:User {name: $from})-[req:OUTGOING_REQUEST]->(b:User {name: $to})
		DELETE req
		MERGE (a)-[:FRIENDS_WITH]->(b)
		MERGE (b)-[:FRIENDS_WITH]->(a)
		RETURN a.name AS from
	`, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return storeError("accept friend request", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("accept friend request", err)
		}
		return apperrors.NewNoSuchRequest(from, to)
	}

	r.logger.Info("Friend request accepted", zap.String("from", from), zap.String("to", to))
	return nil
}

// DeclineFriendRequest removes a pending request without establishing
// friendship, returning the pair to the no-relationship state. NoSuchRequest
// when nothing is pending.
func (r *Repository) DeclineFriendRequest(ctx context.Context, from, to string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:User {name: $from})-[req:OUTGOING_REQUEST]->(b:User {name: $to})
		DELETE req
		RETURN a.name AS from
	`, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return storeError("decline friend request", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("decline friend request", err)
		}
		return apperrors.NewNoSuchRequest(from, to)
	}

	r.logger.Info("Friend request declined", zap.String("from", from), zap.String("to", to))
	return nil
}

// Unfriend deletes the FRIENDS_WITH edges in both directions between the
// pair. A no-op when the users are not currently friends.
func (r *Repository) Unfriend(ctx context.Context, user1, user2 string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:User {name: $user1})-[rel:FRIENDS_WITH]-(b:User {name: $user2})
		DELETE rel
	`, map[string]interface{}{
		"user1": user1,
		"user2": user2,
	})
	if err != nil {
		return storeError("unfriend", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return storeError("unfriend", err)
	}

	r.logger.Info("Unfriended",
		zap.String("user1", user1),
		zap.String("user2", user2),
		zap.Int("edges_removed", summary.Counters().RelationshipsDeleted()),
	)
	return nil
}

// ListFriends returns the distinct direct friends of a user
func (r *Repository) ListFriends(ctx context.Context, name string) ([]string, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $name})
		OPTIONAL MATCH (u)-[:FRIENDS_WITH]-(f:User)
		RETURN u.name AS name, collect(DISTINCT f.name) AS friends
	`, map[string]interface{}{"name": name})
	if err != nil {
		return nil, storeError("list friends", err)
	}

	if result.Next(ctx) {
		return getStringSliceFromRecord(result.Record(), "friends"), nil
	}
	if err := result.Err(); err != nil {
		return nil, storeError("list friends", err)
	}

	return nil, apperrors.NewUserNotFound(name)
}

// missingUser reports which of the named users does not exist. Only called on
// the error path after a relationship MATCH came back empty.
func (r *Repository) missingUser(ctx context.Context, names ...string) error {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	for _, name := range names {
		result, err := session.Run(ctx, `
			MATCH (u:User {name: $name})
			RETURN u.name AS name
		`, map[string]interface{}{"name": name})
		if err != nil {
			return storeError("resolve missing user", err)
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return storeError("resolve missing user", err)
			}
			return apperrors.NewUserNotFound(name)
		}
	}
	// All users exist, so the original zero-row match had another cause.
	return apperrors.NewUserNotFound(names[len(names)-1])
}
