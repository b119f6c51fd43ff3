package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: 20}, Normalize(0, 0))
	assert.Equal(t, Params{Page: 3, Limit: 100}, Normalize(3, 500))
	assert.Equal(t, Params{Page: 2, Limit: 5}, Normalize(2, 5))
}

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?page=4&limit=abc", nil)

	assert.Equal(t, Params{Page: 4, Limit: DefaultLimit}, Parse(c))
}

func TestNewPageNeverNil(t *testing.T) {
	p := NewPage[string](nil, 0, Params{Page: 1, Limit: 20})
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}
