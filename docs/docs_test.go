package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDoc(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed), doc)
	assert.Equal(t, "2.0", parsed.Swagger)

	routes := map[string]string{
		"/health":          "get",
		"/shortUrl/post":   "post",
		"/shortUrl/get":    "post",
		"/{code}":          "get",
		"/auth/login":      "post",
		"/urls":            "get",
		"/api/stats":       "get",
		"/api/urls/{code}": "delete",
	}
	for path, method := range routes {
		require.Contains(t, parsed.Paths, path)
		assert.Contains(t, parsed.Paths[path], method, path)
	}
}
