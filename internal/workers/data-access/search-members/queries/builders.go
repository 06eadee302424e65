// internal/workers/data-access/search-members/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// ElasticsearchQuery defines the structure of a member search request.
type ElasticsearchQuery struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	ChurchID   string
	MemberID   string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type
// and filters.
func BuildQuery(eq ElasticsearchQuery) (*esapi.SearchRequest, error) {
	if eq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch eq.QueryType {
	case "member_search":
		queryBody = buildMemberSearchQuery(eq)
	case "similar_members":
		queryBody = buildSimilarMembersQuery(eq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, eq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{eq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &eq.Pagination.From,
		Size:  &eq.Pagination.Size,
	}

	return &req, nil
}

// buildMemberSearchQuery assembles the bool query for the member index.
func buildMemberSearchQuery(eq ElasticsearchQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Free-text search over the identity fields.
	if keywords, ok := eq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"first_name^2", "last_name^2", "email"},
				"type":   "best_fields",
			},
		})
	}

	// Searches are always scoped to one congregation.
	if eq.ChurchID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"church_id": eq.ChurchID},
		})
	}

	if memberType, ok := eq.Filters["memberType"].(string); ok && memberType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"member_type": memberType},
		})
	}

	if riskLevel, ok := eq.Filters["riskLevel"].(string); ok && riskLevel != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"risk_level": riskLevel},
		})
	}

	if ministry, ok := eq.Filters["ministry"].(string); ok && ministry != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"ministries": ministry},
		})
	}

	if attRange, ok := eq.Filters["attendanceRange"].(map[string]interface{}); ok {
		rangeClause := make(map[string]interface{})
		if min, ok := toFloat(attRange["min"]); ok {
			rangeClause["gte"] = min
		}
		if max, ok := toFloat(attRange["max"]); ok {
			rangeClause["lte"] = max
		}
		if len(rangeClause) > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{"attendance_rate": rangeClause},
			})
		}
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	if sortBy, ok := eq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "commitment_score":
			query["sort"] = []map[string]interface{}{{"commitment_score": "asc"}}
		case "last_name":
			query["sort"] = []map[string]interface{}{{"last_name": "asc"}}
		}
	}

	return query
}

// buildSimilarMembersQuery finds members with overlapping ministries,
// gifts and skills, used for small group and team formation.
func buildSimilarMembersQuery(eq ElasticsearchQuery) map[string]interface{} {
	if eq.MemberID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"ministries", "spiritual_gifts", "skills"},
				"like": []map[string]interface{}{
					{"_index": eq.Index, "_id": eq.MemberID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
			},
		},
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
