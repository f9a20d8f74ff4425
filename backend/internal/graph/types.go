package graph

// ============================================================================
// Social Graph Types
// ============================================================================

// PostID is the store-assigned identifier of a post. It is opaque: equality
// is the only meaningful operation, and values must never be treated as
// sequential or predictable.
type PostID string

// User represents a user node in the graph
type User struct {
	Name      string   `json:"name"`
	Age       int64    `json:"age"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

// Post represents a post node in the graph
type Post struct {
	ID        PostID `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Comment represents a COMMENTED_ON relationship attached to a post
type Comment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// userAttributes is the fixed allow-list of User attribute names that may
// appear in dynamic update and search clauses. Only names from this set are
// ever interpolated into query text; values always travel as parameters.
var userAttributes = map[string]bool{
	"name":      true,
	"age":       true,
	"location":  true,
	"interests": true,
}
