package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/middleware"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

const dateLayout = "2006-01-02"

func userFromContext(c *gin.Context) (models.UserHandle, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return models.UserHandle{}, false
	}
	user, ok := value.(*models.UserHandle)
	if !ok || user == nil {
		return models.UserHandle{}, false
	}
	return *user, true
}

// requireUser writes 401 and reports false when no user handle is attached.
func requireUser(c *gin.Context) (models.UserHandle, bool) {
	user, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return user, ok
}

// pathID parses a positive integer path parameter, writing 404 when malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, name+": not found"))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, writing 400 on malformed JSON.
func bindJSON(c *gin.Context, dest any, what string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload"))
		return false
	}
	return true
}

// versionParam reads the expected row version of a bodyless write from the
// version query parameter or an If-Match header carrying the ETag.
func versionParam(c *gin.Context) (int, bool) {
	raw := c.Query("version")
	if raw == "" {
		raw = strings.Trim(strings.TrimPrefix(c.GetHeader("If-Match"), "W/"), `"`)
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, "invalid payload", map[string]string{"version": "required"}))
		return 0, false
	}
	return version, true
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return &parsed, nil
}

func parseQueryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

// pageParams converts page/limit query parameters into a limit and offset.
func pageParams(c *gin.Context) (limit, offset int) {
	page := parseQueryInt(c, "page", 1)
	limit = parseQueryInt(c, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

// uploadBody returns the uploaded "file" part of a multipart request or,
// for any other content type, the raw request body.
func uploadBody(c *gin.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, nil
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return src, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
