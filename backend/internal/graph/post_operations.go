package graph

import (
	"context"

	"go.uber.org/zap"
	apperrors "socialnet/backend/pkg/errors"
)

// ============================================================================
// Post Operations
// ============================================================================

// CreatePost creates a post authored by the named user. The post node, its
// store-assigned timestamp, and the POSTED edge are created in one statement;
// the returned PostID is the store's element id and is opaque to callers.
func (r *Repository) CreatePost(ctx context.Context, userName, content string) (*Post, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $userName})
		CREATE (u)-[:POSTED]->(p:Post {content: $content, timestamp: timestamp()})
		RETURN elementId(p) AS id, p.timestamp AS timestamp
	`, map[string]interface{}{
		"userName": userName,
		"content":  content,
	})
	if err != nil {
		return nil, storeError("create post", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, storeError("create post", err)
		}
		return nil, apperrors.NewUserNotFound(userName)
	}

	record := result.Record()
	post := &Post{
		ID:        PostID(getStringFromRecord(record, "id")),
		Author:    userName,
		Content:   content,
		Timestamp: getInt64FromRecord(record, "timestamp"),
	}

	r.logger.Info("Post created", zap.String("author", userName), zap.String("post_id", string(post.ID)))
	return post, nil
}

// LikePost merges a LIKES edge between the user and the post. MERGE keeps the
// operation idempotent: a second like of the same post is a no-op, and
// concurrent likes converge to a single edge.
func (r *Repository) LikePost(ctx context.Context, userName string, postID PostID) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $userName})
		MATCH (p:Post) WHERE elementId(p) = $postID
		MERGE (u)-[:LIKES]->(p)
		RETURN u.name AS name
	`, map[string]interface{}{
		"userName": userName,
		"postID":   string(postID),
	})
	if err != nil {
		return storeError("like post", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("like post", err)
		}
		return r.missingUserOrPost(ctx, userName, postID)
	}

	r.logger.Info("Post liked", zap.String("user", userName), zap.String("post_id", string(postID)))
	return nil
}

// CommentOnPost attaches a new COMMENTED_ON edge carrying the comment text.
// Every call creates a fresh edge; comments from the same user on the same
// post are never merged.
func (r *Repository) CommentOnPost(ctx context.Context, userName string, postID PostID, text string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $userName})
		MATCH (p:Post) WHERE elementId(p) = $postID
		CREATE (u)-[:COMMENTED_ON {text: $text}]->(p)
		RETURN u.name AS name
	`, map[string]interface{}{
		"userName": userName,
		"postID":   string(postID),
		"text":     text,
	})
	if err != nil {
		return storeError("comment on post", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("comment on post", err)
		}
		return r.missingUserOrPost(ctx, userName, postID)
	}

	r.logger.Info("Comment added", zap.String("user", userName), zap.String("post_id", string(postID)))
	return nil
}

// ListPosts returns the posts authored by a user, newest first
func (r *Repository) ListPosts(ctx context.Context, userName string) ([]Post, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $userName})
		OPTIONAL MATCH (u)-[:POSTED]->(p:Post)
		WITH u, p ORDER BY p.timestamp DESC
		RETURN u.name AS name, collect({id: elementId(p), content: p.content, timestamp: p.timestamp}) AS posts
	`, map[string]interface{}{"userName": userName})
	if err != nil {
		return nil, storeError("list posts", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, storeError("list posts", err)
		}
		return nil, apperrors.NewUserNotFound(userName)
	}

	record := result.Record()
	posts := []Post{}
	if raw, ok := record.Get("posts"); ok {
		if list, ok := raw.([]interface{}); ok {
			for _, item := range list {
				m, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				id, _ := m["id"].(string)
				if id == "" {
					// Row produced by the OPTIONAL MATCH with no posts
					continue
				}
				content, _ := m["content"].(string)
				ts, _ := m["timestamp"].(int64)
				posts = append(posts, Post{
					ID:        PostID(id),
					Author:    userName,
					Content:   content,
					Timestamp: ts,
				})
			}
		}
	}

	return posts, nil
}

// missingUserOrPost reports whether the user or the post was the missing
// endpoint of a zero-row interaction match.
func (r *Repository) missingUserOrPost(ctx context.Context, userName string, postID PostID) error {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {name: $userName})
		RETURN u.name AS name
	`, map[string]interface{}{"userName": userName})
	if err != nil {
		return storeError("resolve missing entity", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return storeError("resolve missing entity", err)
		}
		return apperrors.NewUserNotFound(userName)
	}

	return apperrors.NewPostNotFound(string(postID))
}
