package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewValidationError("bad"), http.StatusBadRequest, domain.CodeValidation},
		{domain.NewNotFoundError("Room", "101"), http.StatusNotFound, domain.CodeNotFound},
		{domain.New(domain.KindConflict, "room_not_available", "taken"), http.StatusConflict, "room_not_available"},
		{domain.NewInvalidStateError("completed", "confirmed"), http.StatusUnprocessableEntity, domain.CodeInvalidTransition},
		{domain.New(domain.KindConsistency, "partial_check_out", "repair needed"), http.StatusInternalServerError, "partial_check_out"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Error(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		var body Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.code, body.Error.Code)
	}
}

func TestError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("pq: connection refused to 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestPaginated_Meta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(c, []string{"a"}, 21, 1, 10)

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
}
