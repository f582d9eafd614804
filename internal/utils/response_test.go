package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrors(t *testing.T) {
	verr := NewValidationError("quantity", "quantity must be greater than 0")
	assert.Equal(t, "quantity: quantity must be greater than 0", verr.Error())
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", verr)))
	assert.False(t, IsNotFound(verr))

	nf := NewNotFoundError("product", "product %q not found", "Widget")
	assert.Equal(t, `product "Widget" not found`, nf.Error())
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"validation", NewValidationError("customCost", "invalid custom cost format"), http.StatusBadRequest, CodeValidation, "customCost"},
		{"not found", NewNotFoundError("tariff_rate", "no tariff data"), http.StatusNotFound, CodeNotFound, ""},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFoundError("product", "gone")), http.StatusNotFound, CodeNotFound, ""},
		{"internal", errors.New("db exploded"), http.StatusInternalServerError, CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			c.Set("request_id", "req-1")

			RespondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.field, resp.Error.Field)
			assert.Equal(t, "req-1", resp.Meta.RequestID)
			assert.NotContains(t, w.Body.String(), "db exploded")
		})
	}
}
