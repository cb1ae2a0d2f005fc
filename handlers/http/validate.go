package httpHandler

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"recorder-server/repositories"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxHandleLength = 50

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidUUID reports whether s is a UUID in canonical 8-4-4-4-12 form with a
// version between 1 and 5.
func ValidUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// requireUUID validates s and returns it in lower-case canonical form.
func requireUUID(s, field string) (string, error) {
	if !ValidUUID(s) {
		return "", BadRequest(fmt.Sprintf("%s must be a valid UUID", field))
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", BadRequest(fmt.Sprintf("%s must be a valid UUID", field))
	}
	return id.String(), nil
}

// pathUUID reads and validates the :id path parameter.
func pathUUID(c *gin.Context) (string, error) {
	return requireUUID(c.Param("id"), "id")
}

// optionalUUID validates a form value that may be absent.
func optionalUUID(c *gin.Context, field string) (*string, error) {
	value, ok := c.GetPostForm(field)
	if !ok || value == "" {
		return nil, nil
	}
	id, err := requireUUID(value, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseDate accepts ISO-8601 timestamps and plain dates.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as an ISO-8601 date", s)
}

func optionalDate(value string, present bool, field string) (*time.Time, error) {
	if !present || value == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, BadRequest(fmt.Sprintf("%s must be an ISO-8601 date", field))
	}
	return &t, nil
}

// dateRange reads the afterDate/beforeDate query bounds.
func dateRange(c *gin.Context) (after, before *time.Time, err error) {
	value, ok := c.GetQuery("afterDate")
	if after, err = optionalDate(value, ok, "afterDate"); err != nil {
		return nil, nil, err
	}
	value, ok = c.GetQuery("beforeDate")
	if before, err = optionalDate(value, ok, "beforeDate"); err != nil {
		return nil, nil, err
	}
	return after, before, nil
}

// ValidateHandle enforces the device handle rules: not blank, at most 50
// characters.
func ValidateHandle(handle string) error {
	if strings.TrimSpace(handle) == "" {
		return BadRequest("handle must not be blank")
	}
	if utf8.RuneCountInString(handle) > maxHandleLength {
		return BadRequest(fmt.Sprintf("handle must be at most %d characters", maxHandleLength))
	}
	return nil
}

// ParseJSONObject decodes a JSON-valued form field. Anything but a JSON
// object is rejected.
func ParseJSONObject(s, field string) (datatypes.JSONMap, error) {
	v, err := repositories.DecodeJSON([]byte(s))
	if err != nil {
		return nil, BadRequest(fmt.Sprintf("%s must be valid JSON", field))
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, BadRequest(fmt.Sprintf("%s must be a JSON object", field))
	}
	return datatypes.JSONMap(m), nil
}

// optionalJSONObject parses field when present in the request body.
func optionalJSONObject(c *gin.Context, field string) (datatypes.JSONMap, error) {
	value, ok := c.GetPostForm(field)
	if !ok {
		return nil, nil
	}
	return ParseJSONObject(value, field)
}

// optionalText returns a pointer to the form value, nil when absent.
func optionalText(c *gin.Context, field string) *string {
	value, ok := c.GetPostForm(field)
	if !ok {
		return nil
	}
	return &value
}
