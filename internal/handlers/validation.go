package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/validator"
)

// bindAndValidate decodes the JSON body into dst and applies struct validation
// rules, converting failures into client-facing bad requests.
func bindAndValidate(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.NewBadRequest("invalid request body")
	}
	if err := validator.ValidateStruct(dst); err != nil {
		return errors.NewBadRequest(err.Error())
	}
	return nil
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
