package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"socialnet/backend/internal/graph"
	"socialnet/backend/pkg/config"
	apperrors "socialnet/backend/pkg/errors"
	"socialnet/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting social graph API server...")

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

	repo := graph.NewRepository(driver)

	// Verify Neo4j connection
	ctx := context.Background()
	if err := repo.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(repo, log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func newRouter(repo *graph.Repository, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Register a user
		api.POST("/users", func(c *gin.Context) {
			var req struct {
				Name      string   `json:"name" binding:"required"`
				Age       int64    `json:"age"`
				Location  string   `json:"location"`
				Interests []string `json:"interests"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			user, err := repo.RegisterUser(c.Request.Context(), req.Name, req.Age, req.Location, req.Interests)
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, user)
		})

		// Fetch a user
		api.GET("/users/:name", func(c *gin.Context) {
			user, err := repo.GetUser(c.Request.Context(), c.Param("name"))
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, user)
		})

		// Update user attributes
		api.PATCH("/users/:name", func(c *gin.Context) {
			var props map[string]interface{}
			if err := c.ShouldBindJSON(&props); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if err := repo.UpdateUserInfo(c.Request.Context(), c.Param("name"), props); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "updated"})
		})

		// Search users by attribute equality
		api.POST("/users/search", func(c *gin.Context) {
			var predicates map[string]interface{}
			if err := c.ShouldBindJSON(&predicates); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			names, err := repo.SearchUsers(c.Request.Context(), predicates)
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"names": names})
		})

		// Friendship lifecycle
		api.POST("/friend-requests", func(c *gin.Context) {
			from, to, ok := bindPair(c)
			if !ok {
				return
			}
			if err := repo.SendFriendRequest(c.Request.Context(), from, to); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "pending"})
		})

		api.POST("/friend-requests/accept", func(c *gin.Context) {
			from, to, ok := bindPair(c)
			if !ok {
				return
			}
			if err := repo.AcceptFriendRequest(c.Request.Context(), from, to); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "friends"})
		})

		api.POST("/friend-requests/decline", func(c *gin.Context) {
			from, to, ok := bindPair(c)
			if !ok {
				return
			}
			if err := repo.DeclineFriendRequest(c.Request.Context(), from, to); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "declined"})
		})

		api.POST("/unfriend", func(c *gin.Context) {
			var req struct {
				User1 string `json:"user1" binding:"required"`
				User2 string `json:"user2" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := repo.Unfriend(c.Request.Context(), req.User1, req.User2); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "unfriended"})
		})

		api.GET("/users/:name/friends", func(c *gin.Context) {
			friends, err := repo.ListFriends(c.Request.Context(), c.Param("name"))
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"friends": friends})
		})

		api.GET("/users/:name/recommendations", func(c *gin.Context) {
			recs, err := repo.RecommendFriends(c.Request.Context(), c.Param("name"))
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"recommendations": recs})
		})

		// Posts and interactions
		api.POST("/users/:name/posts", func(c *gin.Context) {
			var req struct {
				Content string `json:"content" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			post, err := repo.CreatePost(c.Request.Context(), c.Param("name"), req.Content)
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, post)
		})

		api.GET("/users/:name/posts", func(c *gin.Context) {
			posts, err := repo.ListPosts(c.Request.Context(), c.Param("name"))
			if err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"posts": posts})
		})

		api.POST("/posts/:id/like", func(c *gin.Context) {
			var req struct {
				User string `json:"user" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if err := repo.LikePost(c.Request.Context(), req.User, graph.PostID(c.Param("id"))); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "liked"})
		})

		api.POST("/posts/:id/comments", func(c *gin.Context) {
			var req struct {
				User string `json:"user" binding:"required"`
				Text string `json:"text" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if err := repo.CommentOnPost(c.Request.Context(), req.User, graph.PostID(c.Param("id")), req.Text); err != nil {
				abortWithError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"status": "commented"})
		})
	}

	return router
}

// bindPair binds the {from, to} request body shared by the friend-request
// endpoints. Responds with 400 itself when binding fails.
func bindPair(c *gin.Context) (string, string, bool) {
	var req struct {
		From string `json:"from" binding:"required"`
		To   string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return req.From, req.To, true
}

// abortWithError maps the error taxonomy onto HTTP status codes
func abortWithError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound),
		apperrors.IsErrorType(err, apperrors.ErrorTypeNoSuchRequest):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeDuplicateEntity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidPredicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeStoreUnavailable):
		log.Error("Store unavailable", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph store unavailable"})
	default:
		log.Error("Unhandled error", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// requestID attaches a unique id to each request for log correlation
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
