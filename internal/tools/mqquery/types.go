package mqquery

import "github.com/sammcj/mcp-mq/internal/mq"

// QueryRequest holds the validated arguments of an mq_query call
type QueryRequest struct {
	Code        string
	Content     string
	InputFormat mq.InputFormat
}
