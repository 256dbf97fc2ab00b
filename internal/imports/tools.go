package imports

import (
	_ "github.com/sammcj/mcp-mq/internal/tools/htmltomarkdown"
	_ "github.com/sammcj/mcp-mq/internal/tools/mqquery"
)
