package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	apperrors "socialnet/backend/pkg/errors"
)

// These tests require a running Neo4j instance at bolt://localhost:7687
// (neo4j/password). They are skipped with -short.

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := "bolt://localhost:7687"
	user := "neo4j"
	password := "password"

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return driver, nil
}

type testGraph struct {
	t      *testing.T
	ctx    context.Context
	driver neo4j.DriverWithContext
	repo   *Repository
	suffix string
}

func newTestGraph(t *testing.T) *testGraph {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}

	tg := &testGraph{
		t:      t,
		ctx:    context.Background(),
		driver: driver,
		repo:   NewRepository(driver),
		suffix: fmt.Sprintf("-%s", time.Now().Format("20060102150405.000")),
	}

	t.Cleanup(func() {
		session := driver.NewSession(tg.ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(tg.ctx)
		_, _ = session.Run(tg.ctx,
			"MATCH (u:User) WHERE u.name ENDS WITH $suffix OPTIONAL MATCH (u)-[:POSTED]->(p:Post) DETACH DELETE u, p",
			map[string]interface{}{"suffix": tg.suffix})
		driver.Close(tg.ctx)
	})

	return tg
}

func (tg *testGraph) name(base string) string {
	return base + tg.suffix
}

func (tg *testGraph) register(base string, age int64, location string, interests []string) string {
	tg.t.Helper()
	name := tg.name(base)
	if _, err := tg.repo.RegisterUser(tg.ctx, name, age, location, interests); err != nil {
		tg.t.Fatalf("RegisterUser(%s) failed: %v", base, err)
	}
	return name
}

func (tg *testGraph) countEdges(query string, params map[string]interface{}) int64 {
	tg.t.Helper()
	session := tg.driver.NewSession(tg.ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(tg.ctx)

	result, err := session.Run(tg.ctx, query, params)
	if err != nil {
		tg.t.Fatalf("count query failed: %v", err)
	}
	record, err := result.Single(tg.ctx)
	if err != nil {
		tg.t.Fatalf("count query returned no row: %v", err)
	}
	count, _ := record.Get("count")
	return count.(int64)
}

func TestRepository_RegisterAndGetUser(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", []string{"Music", "Sports"})

	user, err := tg.repo.GetUser(tg.ctx, alice)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Age != 30 || user.Location != "New York" || len(user.Interests) != 2 {
		t.Errorf("Unexpected user: %+v", user)
	}

	// Second registration of the same name must fail
	_, err = tg.repo.RegisterUser(tg.ctx, alice, 99, "Elsewhere", nil)
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicateEntity) {
		t.Errorf("Expected duplicate_entity error, got %v", err)
	}
}

func TestRepository_UpdateUserInfo(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", []string{"Music", "Sports"})

	if err := tg.repo.UpdateUserInfo(tg.ctx, alice, map[string]interface{}{"age": int64(31)}); err != nil {
		t.Fatalf("UpdateUserInfo failed: %v", err)
	}

	user, err := tg.repo.GetUser(tg.ctx, alice)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Age != 31 {
		t.Errorf("Expected age 31, got %d", user.Age)
	}
	if user.Location != "New York" || len(user.Interests) != 2 {
		t.Errorf("Other attributes changed: %+v", user)
	}

	// Unknown user surfaces NotFound, not a silent zero-row success
	err = tg.repo.UpdateUserInfo(tg.ctx, tg.name("Nobody"), map[string]interface{}{"age": int64(1)})
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected not_found error, got %v", err)
	}

	// Keys outside the allow-list are rejected before reaching the store
	err = tg.repo.UpdateUserInfo(tg.ctx, alice, map[string]interface{}{"admin": true})
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidPredicate) {
		t.Errorf("Expected invalid_predicate error, got %v", err)
	}
}

func TestRepository_FriendshipLifecycle(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", nil)
	bob := tg.register("Bob", 25, "San Francisco", nil)

	// Sending twice while pending keeps exactly one request edge
	if err := tg.repo.SendFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := tg.repo.SendFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("Repeat SendFriendRequest failed: %v", err)
	}
	requests := tg.countEdges(
		"MATCH (:User {name: $a})-[r:OUTGOING_REQUEST]->(:User {name: $b}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	if requests != 1 {
		t.Errorf("Expected 1 request edge, got %d", requests)
	}

	if err := tg.repo.AcceptFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}

	// Both directions exist, the request is gone
	forward := tg.countEdges(
		"MATCH (:User {name: $a})-[r:FRIENDS_WITH]->(:User {name: $b}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	backward := tg.countEdges(
		"MATCH (:User {name: $b})-[r:FRIENDS_WITH]->(:User {name: $a}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	if forward != 1 || backward != 1 {
		t.Errorf("Expected symmetric friendship, got forward=%d backward=%d", forward, backward)
	}
	requests = tg.countEdges(
		"MATCH (:User {name: $a})-[r:OUTGOING_REQUEST]->(:User {name: $b}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	if requests != 0 {
		t.Errorf("Expected request edge consumed, got %d", requests)
	}

	if err := tg.repo.Unfriend(tg.ctx, alice, bob); err != nil {
		t.Fatalf("Unfriend failed: %v", err)
	}
	remaining := tg.countEdges(
		"MATCH (:User {name: $a})-[r:FRIENDS_WITH]-(:User {name: $b}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	if remaining != 0 {
		t.Errorf("Expected no friendship edges after unfriend, got %d", remaining)
	}
}

func TestRepository_SendFriendRequest_UnknownUser(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", nil)
	ghost := tg.name("Ghost")

	// Unregistered recipient
	err := tg.repo.SendFriendRequest(tg.ctx, alice, ghost)
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("Expected not_found for unknown recipient, got %v", err)
	}
	var notFound *apperrors.ErrUserNotFound
	if !errors.As(err, &notFound) || notFound.Name != ghost {
		t.Errorf("Expected missing user %s to be named, got %v", ghost, err)
	}

	// Unregistered sender
	err = tg.repo.SendFriendRequest(tg.ctx, ghost, alice)
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("Expected not_found for unknown sender, got %v", err)
	}
	if !errors.As(err, &notFound) || notFound.Name != ghost {
		t.Errorf("Expected missing user %s to be named, got %v", ghost, err)
	}

	// No stray edges were created
	edges := tg.countEdges(
		"MATCH (:User {name: $a})-[r]-() RETURN count(r) AS count",
		map[string]interface{}{"a": alice})
	if edges != 0 {
		t.Errorf("Expected untouched graph, found %d edges", edges)
	}
}

func TestRepository_AcceptWithoutRequest(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", nil)
	bob := tg.register("Bob", 25, "San Francisco", nil)

	err := tg.repo.AcceptFriendRequest(tg.ctx, alice, bob)
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNoSuchRequest) {
		t.Fatalf("Expected no_such_request error, got %v", err)
	}

	// The graph must be left unmutated
	edges := tg.countEdges(
		"MATCH (:User {name: $a})-[r]-(:User {name: $b}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	if edges != 0 {
		t.Errorf("Expected untouched graph, found %d edges", edges)
	}
}

func TestRepository_DeclineFriendRequest(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", nil)
	bob := tg.register("Bob", 25, "San Francisco", nil)

	if err := tg.repo.SendFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := tg.repo.DeclineFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("DeclineFriendRequest failed: %v", err)
	}

	edges := tg.countEdges(
		"MATCH (:User {name: $a})-[r]-(:User {name: $b}) RETURN count(r) AS count",
		map[string]interface{}{"a": alice, "b": bob})
	if edges != 0 {
		t.Errorf("Expected pair back in NONE state, found %d edges", edges)
	}

	err := tg.repo.DeclineFriendRequest(tg.ctx, alice, bob)
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNoSuchRequest) {
		t.Errorf("Expected no_such_request on second decline, got %v", err)
	}
}

func TestRepository_PostLikeComment(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", nil)
	bob := tg.register("Bob", 25, "San Francisco", nil)

	post, err := tg.repo.CreatePost(tg.ctx, alice, "Hello World!")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID == "" || post.Timestamp == 0 {
		t.Errorf("Expected store-assigned id and timestamp, got %+v", post)
	}

	// Liking twice converges to a single edge
	if err := tg.repo.LikePost(tg.ctx, bob, post.ID); err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}
	if err := tg.repo.LikePost(tg.ctx, bob, post.ID); err != nil {
		t.Fatalf("Repeat LikePost failed: %v", err)
	}
	likes := tg.countEdges(
		"MATCH (:User {name: $b})-[r:LIKES]->(p:Post) WHERE elementId(p) = $postID RETURN count(r) AS count",
		map[string]interface{}{"b": bob, "postID": string(post.ID)})
	if likes != 1 {
		t.Errorf("Expected exactly 1 LIKES edge, got %d", likes)
	}

	// Commenting twice creates two independent edges
	if err := tg.repo.CommentOnPost(tg.ctx, bob, post.ID, "Nice post!"); err != nil {
		t.Fatalf("CommentOnPost failed: %v", err)
	}
	if err := tg.repo.CommentOnPost(tg.ctx, bob, post.ID, "Nice post!"); err != nil {
		t.Fatalf("Repeat CommentOnPost failed: %v", err)
	}
	comments := tg.countEdges(
		"MATCH (:User {name: $b})-[r:COMMENTED_ON]->(p:Post) WHERE elementId(p) = $postID RETURN count(r) AS count",
		map[string]interface{}{"b": bob, "postID": string(post.ID)})
	if comments != 2 {
		t.Errorf("Expected 2 COMMENTED_ON edges, got %d", comments)
	}

	posts, err := tg.repo.ListPosts(tg.ctx, alice)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Errorf("Unexpected posts: %+v", posts)
	}

	// Missing post surfaces NotFound
	err = tg.repo.LikePost(tg.ctx, bob, PostID("4:deadbeef:0"))
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected not_found for missing post, got %v", err)
	}
}

func TestRepository_RecommendFriends(t *testing.T) {
	tg := newTestGraph(t)

	alice := tg.register("Alice", 30, "New York", []string{"Music", "Sports"})
	bob := tg.register("Bob", 25, "San Francisco", []string{"Music", "Travel"})
	charlie := tg.register("Charlie", 35, "New York", []string{"Sports", "Travel"})

	// Bob ends up friends with both Alice and Charlie; Alice and Charlie are not friends
	if err := tg.repo.SendFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := tg.repo.AcceptFriendRequest(tg.ctx, alice, bob); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}
	if err := tg.repo.SendFriendRequest(tg.ctx, charlie, bob); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := tg.repo.AcceptFriendRequest(tg.ctx, charlie, bob); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}

	recs, err := tg.repo.RecommendFriends(tg.ctx, alice)
	if err != nil {
		t.Fatalf("RecommendFriends failed: %v", err)
	}
	if len(recs) != 1 || recs[0] != charlie {
		t.Errorf("Expected [%s], got %v", charlie, recs)
	}

	// Every second-hop candidate of Bob is already a direct friend of Bob,
	// so the exclusion over the in-transaction friend snapshot leaves nothing
	recs, err = tg.repo.RecommendFriends(tg.ctx, bob)
	if err != nil {
		t.Fatalf("RecommendFriends failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations for %s, got %v", bob, recs)
	}

	// A user with no friends gets an empty result, not an error
	dana := tg.register("Dana", 40, "Boston", nil)
	recs, err = tg.repo.RecommendFriends(tg.ctx, dana)
	if err != nil {
		t.Fatalf("RecommendFriends failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %v", recs)
	}
}

func TestRepository_SearchUsers(t *testing.T) {
	tg := newTestGraph(t)

	// Location carries the test suffix so leftovers from other runs cannot match
	location := "New York" + tg.suffix
	alice := tg.register("Alice", 30, location, []string{"Music", "Sports"})
	tg.register("Bob", 25, "San Francisco"+tg.suffix, []string{"Music", "Travel"})
	charlie := tg.register("Charlie", 35, location, []string{"Sports", "Travel"})

	names, err := tg.repo.SearchUsers(tg.ctx, map[string]interface{}{"location": location})
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}

	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if len(names) != 2 || !found[alice] || !found[charlie] {
		t.Errorf("Expected {%s, %s}, got %v", alice, charlie, names)
	}

	names, err = tg.repo.SearchUsers(tg.ctx, map[string]interface{}{
		"location": location,
		"age":      int64(35),
	})
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(names) != 1 || names[0] != charlie {
		t.Errorf("Expected [%s], got %v", charlie, names)
	}
}
