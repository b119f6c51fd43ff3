package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryBool reads an optional boolean filter; absent or unparsable yields nil.
func queryBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
