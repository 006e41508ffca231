package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRequest represents a test HTTP request
type TestRequest struct {
	Method  string
	Path    string
	Body    interface{}
	RawBody []byte
	Headers map[string]string
}

// TestResponse represents a test HTTP response
type TestResponse struct {
	StatusCode int
	Header     http.Header
	Raw        []byte
	Body       map[string]interface{}
}

// MakeTestRequest sends req through handler and decodes a JSON response body
func MakeTestRequest(t *testing.T, handler http.Handler, req TestRequest) TestResponse {
	t.Helper()

	body := req.RawBody
	if body == nil && req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		require.NoError(t, err, "marshal request body")
	}

	httpReq, err := http.NewRequest(req.Method, req.Path, bytes.NewReader(body))
	require.NoError(t, err, "create request")
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httpReq)

	resp := TestResponse{StatusCode: w.Code, Header: w.Header(), Raw: w.Body.Bytes()}
	if w.Body.Len() > 0 && isJSON(w.Header().Get("Content-Type")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp.Body), "unmarshal response body")
	}
	return resp
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

// AssertResponse asserts the status code and, when given, the response message
func AssertResponse(t *testing.T, response TestResponse, expectedStatusCode int, expectedMessage string) {
	t.Helper()
	assert.Equal(t, expectedStatusCode, response.StatusCode, "body: %s", response.Raw)
	if expectedMessage != "" {
		assert.Equal(t, expectedMessage, response.Body["message"])
	}
}

// ResponseData returns the data object of a standard response
func ResponseData(t *testing.T, response TestResponse) map[string]interface{} {
	t.Helper()
	data, ok := response.Body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", response.Raw)
	return data
}

// GetTestToken generates a bearer header value for userID
func GetTestToken(t *testing.T, userID, email, secret string) string {
	t.Helper()
	token, err := GenerateToken(userID, email, secret)
	require.NoError(t, err, "generate test token")
	return "Bearer " + token
}

// NewTestEngine returns a gin engine in test mode
func NewTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
