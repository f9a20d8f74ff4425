package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"socialnet/backend/internal/graph"
	"socialnet/backend/pkg/config"
	apperrors "socialnet/backend/pkg/errors"
	"socialnet/backend/pkg/logger"
)

func main() {
	force := flag.Bool("force", false, "Delete existing demo users before seeding")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	// Create constraints
	log.Info("Creating constraints...")
	if err := createConstraints(ctx, driver); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	// Create indexes for better performance
	log.Info("Creating indexes...")
	if err := createIndexes(ctx, driver); err != nil {
		log.Warn("Failed to create some indexes (may already exist)", zap.Error(err))
	}

	if *force {
		log.Info("Removing existing demo users...")
		if err := removeDemoUsers(ctx, driver); err != nil {
			log.Fatal("Failed to remove demo users", zap.Error(err))
		}
	}

	// Register demo users
	users := []struct {
		name      string
		age       int64
		location  string
		interests []string
	}{
		{"Alice", 30, "New York", []string{"Music", "Sports"}},
		{"Bob", 25, "San Francisco", []string{"Music", "Travel"}},
		{"Charlie", 35, "New York", []string{"Sports", "Travel"}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range users {
		u := u
		g.Go(func() error {
			_, err := repo.RegisterUser(gctx, u.name, u.age, u.location, u.interests)
			if apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicateEntity) {
				log.Info("User already seeded, skipping (use -force to recreate)", zap.String("name", u.name))
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("Failed to register demo users", zap.Error(err))
	}

	// Profile update
	if err := repo.UpdateUserInfo(ctx, "Alice", map[string]interface{}{"age": int64(31)}); err != nil {
		log.Fatal("Failed to update Alice", zap.Error(err))
	}

	// Friendships: Bob ends up friends with both Alice and Charlie
	for _, pair := range [][2]string{{"Alice", "Bob"}, {"Charlie", "Bob"}} {
		if err := repo.SendFriendRequest(ctx, pair[0], pair[1]); err != nil {
			log.Fatal("Failed to send friend request", zap.Error(err))
		}
		if err := repo.AcceptFriendRequest(ctx, pair[0], pair[1]); err != nil {
			if !apperrors.IsErrorType(err, apperrors.ErrorTypeNoSuchRequest) {
				log.Fatal("Failed to accept friend request", zap.Error(err))
			}
		}
	}

	// Posts and interactions
	post, err := repo.CreatePost(ctx, "Alice", "Hello World!")
	if err != nil {
		log.Fatal("Failed to create post", zap.Error(err))
	}
	if err := repo.LikePost(ctx, "Bob", post.ID); err != nil {
		log.Fatal("Failed to like post", zap.Error(err))
	}
	if err := repo.CommentOnPost(ctx, "Bob", post.ID, "Nice post!"); err != nil {
		log.Fatal("Failed to comment on post", zap.Error(err))
	}

	// Show what the seeded graph yields
	recommendations, err := repo.RecommendFriends(ctx, "Alice")
	if err != nil {
		log.Fatal("Failed to compute recommendations", zap.Error(err))
	}
	newYorkers, err := repo.SearchUsers(ctx, map[string]interface{}{"location": "New York"})
	if err != nil {
		log.Fatal("Failed to search users", zap.Error(err))
	}

	log.Info("Seeding complete",
		zap.Strings("recommendations_for_alice", recommendations),
		zap.Strings("users_in_new_york", newYorkers),
	)
}

func createConstraints(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	// Name is the sole external key of a user
	_, err := session.Run(ctx,
		"CREATE CONSTRAINT user_name_unique IF NOT EXISTS FOR (u:User) REQUIRE u.name IS UNIQUE", nil)
	return err
}

func createIndexes(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX user_location IF NOT EXISTS FOR (u:User) ON (u.location)",
		"CREATE INDEX post_timestamp IF NOT EXISTS FOR (p:Post) ON (p.timestamp)",
	}
	for _, index := range indexes {
		if _, err := session.Run(ctx, index, nil); err != nil {
			return err
		}
	}
	return nil
}

func removeDemoUsers(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (u:User) WHERE u.name IN $names
		OPTIONAL MATCH (u)-[:POSTED]->(p:Post)
		DETACH DELETE u, p
	`, map[string]interface{}{"names": []string{"Alice", "Bob", "Charlie"}})
	return err
}
