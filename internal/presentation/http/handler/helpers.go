package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/pkg/apperror"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserName extracts the staff member's display name, used as the cashier
// on receipts and as the editor on discount audits.
func GetUserName(c *gin.Context) string {
	return c.GetString("user_name")
}

// GetUserRoles extracts the user roles from the Gin context
func GetUserRoles(c *gin.Context) []string {
	return c.GetStringSlice("user_roles")
}

// parseDialect turns an optional dialect name into a PrintDialect. nil means
// "use the configured paper width".
func parseDialect(raw *string) (*enum.PrintDialect, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := enum.ParsePrintDialect(*raw)
	if err != nil {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "dialect", Message: err.Error()}})
	}
	return &d, nil
}

// bindJSON decodes the request body strictly, rejecting unknown fields so a
// misspelt key cannot silently bind as a zero value, then applies the
// binding tags.
func bindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return binding.Validator.ValidateStruct(obj)
}
