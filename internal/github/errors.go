package github

import (
	"fmt"
	"strings"
)

// NoDataError reports a gh invocation that should have produced JSON
// but produced nothing.
type NoDataError struct {
	Operation string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data returned by %s", e.Operation)
}

// GraphQLAPIError reports a GraphQL response that carried errors or no
// data payload.
type GraphQLAPIError struct {
	Messages []string
}

func (e *GraphQLAPIError) Error() string {
	if len(e.Messages) == 0 {
		return "GraphQL API error"
	}
	return "GraphQL API error: " + strings.Join(e.Messages, "; ")
}
