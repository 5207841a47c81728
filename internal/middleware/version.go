package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// APIVersionHeader carries the requested API version in and the served version out
const APIVersionHeader = "X-Api-Version"

// CurrentAPIVersion is served when a request names no version
const CurrentAPIVersion = "1.0.0"

// VersionMiddleware resolves X-Api-Version to a full version under the current major.
// Requests for another major version are refused with 400.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version, err := resolveVersion(c.Get(APIVersionHeader))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		c.Locals("apiVersion", version)
		c.Set(APIVersionHeader, version)

		return c.Next()
	}
}

// APIVersion returns the version resolved for this request
func APIVersion(c *fiber.Ctx) string {
	if v, ok := c.Locals("apiVersion").(string); ok {
		return v
	}
	return CurrentAPIVersion
}

// resolveVersion accepts "1", "1.0", "v1.0.0" and the like
func resolveVersion(requested string) (string, error) {
	requested = strings.TrimPrefix(strings.TrimSpace(requested), "v")
	if requested == "" {
		return CurrentAPIVersion, nil
	}

	parts := strings.Split(requested, ".")
	if len(parts) > 3 {
		return "", fmt.Errorf("malformed api version %q", requested)
	}
	current := strings.Split(CurrentAPIVersion, ".")
	if parts[0] != current[0] {
		return "", fmt.Errorf("unsupported api version %q, this server speaks %s", requested, CurrentAPIVersion)
	}

	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, "."), nil
}
