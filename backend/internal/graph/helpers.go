package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	apperrors "socialnet/backend/pkg/errors"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

// validateAttributeKeys rejects any key outside the fixed User attribute
// allow-list before it can reach query construction. Caller-controlled keys
// are never interpolated into Cypher without passing this check.
func validateAttributeKeys(keys map[string]interface{}, forbidden ...string) error {
	for key := range keys {
		if !userAttributes[key] {
			return apperrors.NewInvalidPredicate(key, "not a known user attribute")
		}
		for _, f := range forbidden {
			if key == f {
				return apperrors.NewInvalidPredicate(key, "attribute cannot be modified")
			}
		}
	}
	return nil
}

// storeError wraps a driver failure in the retryable store-unavailable
// category. Failures on write paths are always surfaced, never swallowed.
func storeError(operation string, err error) error {
	return apperrors.NewStoreUnavailable(operation, err)
}
