package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestWindowMeta(t *testing.T) {
	c, w := newContext()
	Window(c, []int{1, 2}, 2, 2, 4)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []int                  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int{1, 2}, body.Data)
	assert.Equal(t, float64(4), body.Meta["offset"])
	assert.Equal(t, true, body.Meta["hasMore"])
}

func TestVersionedSetsETag(t *testing.T) {
	c, w := newContext()
	Versioned(c, http.StatusOK, map[string]string{"id": "1"}, 3)
	assert.Equal(t, `W/"3"`, w.Header().Get("ETag"))
}

func TestErrorEnvelope(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Clone(appErrors.ErrConcurrentModification, "case changed"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONCURRENT_MODIFICATION", body.Error.Code)
	assert.Equal(t, "case changed", body.Error.Message)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestNoContentFlushes(t *testing.T) {
	c, w := newContext()
	NoContent(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
