package httpHandler

import (
	"github.com/gin-gonic/gin"
)

// Candidate is one handler bound to a route, tried only when Match accepts
// the request.
type Candidate struct {
	Name   string
	Match  func(c *gin.Context) bool
	Handle gin.HandlerFunc
}

// Chain tries the candidates in order and runs the first whose Match
// accepts the request. When none does the request is rejected with
// "Bad request".
func Chain(candidates ...Candidate) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, candidate := range candidates {
			if candidate.Match(c) {
				candidate.Handle(c)
				return
			}
		}
		abortWith(c, BadRequest("Bad request"))
	}
}

// queryShape matches when the query keys present among known are exactly
// a non-empty subset of wanted. With no wanted keys it matches only when
// none of known is present.
func queryShape(known []string, wanted ...string) func(*gin.Context) bool {
	return func(c *gin.Context) bool {
		present := 0
		for _, key := range known {
			if _, ok := c.GetQuery(key); !ok {
				continue
			}
			if !contains(wanted, key) {
				return false
			}
			present++
		}
		return len(wanted) == 0 || present > 0
	}
}

// queryNonEmpty matches when key carries a non-empty value, whatever
// else the query holds.
func queryNonEmpty(key string) func(*gin.Context) bool {
	return func(c *gin.Context) bool {
		return c.Query(key) != ""
	}
}

// formHasAll matches when every key is present in the request body.
func formHasAll(keys ...string) func(*gin.Context) bool {
	return func(c *gin.Context) bool {
		for _, key := range keys {
			if _, ok := c.GetPostForm(key); !ok {
				return false
			}
		}
		return true
	}
}

// formHasAny matches when at least one key is present in the request body.
func formHasAny(keys ...string) func(*gin.Context) bool {
	return func(c *gin.Context) bool {
		for _, key := range keys {
			if _, ok := c.GetPostForm(key); ok {
				return true
			}
		}
		return false
	}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
