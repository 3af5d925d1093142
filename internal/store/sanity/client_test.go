package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   map[string]interface{}
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		json.Unmarshal(raw, &body)
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testArticle() *models.Article {
	return &models.Article{
		ID:    "drafts.medicaid",
		Type:  "policyAnalysis",
		Title: "Medicaid",
		Slug:  models.Slug{Current: "medicaid"},
		Body:  []interface{}{models.Block{"_type": "block", "_key": "a1"}},
	}
}

func TestClient_CreateOrReplace(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{
		"transactionId": "tx1",
		"results": [{"id": "drafts.medicaid", "operation": "create", "document": {"_id": "drafts.medicaid", "_type": "policyAnalysis", "title": "Medicaid", "slug": {"current": "medicaid"}, "body": []}}]
	}`)
	client := NewClient("proj", "production", "sk-token", WithBaseURL(srv.URL), WithRateLimit(100))

	written, err := client.CreateOrReplace(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Equal(t, "drafts.medicaid", written.ID)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v2023-10-01/data/mutate/production", req.Path)
	assert.Equal(t, "Bearer sk-token", req.Auth)
	assert.Equal(t, "true", req.Query["returnDocuments"][0])

	mutations := req.Body["mutations"].([]interface{})
	require.Len(t, mutations, 1)
	doc := mutations[0].(map[string]interface{})["createOrReplace"].(map[string]interface{})
	assert.Equal(t, "drafts.medicaid", doc["_id"])
	assert.Equal(t, "policyAnalysis", doc["_type"])
}

func TestClient_CreateWithoutReturnedDocument(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"results": [{"id": "generated-id", "operation": "create"}]}`)
	client := NewClient("proj", "production", "sk", WithBaseURL(srv.URL), WithAPIVersion("2024-01-01"))

	doc := testArticle()
	doc.ID = ""
	written, err := client.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "generated-id", written.ID)
	assert.Equal(t, "Medicaid", written.Title)
	assert.Equal(t, "/v2024-01-01/data/mutate/production", (*requests)[0].Path)

	mutation := (*requests)[0].Body["mutations"].([]interface{})[0].(map[string]interface{})
	assert.NotContains(t, mutation["create"], "_id", "an empty id is left for the store to assign")
}

func TestClient_DeleteUsesParameterisedQuery(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"results": []}`)
	client := NewClient("proj", "production", "sk", WithBaseURL(srv.URL))

	err := client.Delete(context.Background(), store.Query{Type: "policyAnalysis", Slug: `evil" || true`})
	require.NoError(t, err)

	mutation := (*requests)[0].Body["mutations"].([]interface{})[0].(map[string]interface{})
	del := mutation["delete"].(map[string]interface{})
	assert.Equal(t, `*[_type == $type && slug.current == $slug]`, del["query"])
	params := del["params"].(map[string]interface{})
	assert.Equal(t, `evil" || true`, params["slug"])
	assert.Equal(t, "policyAnalysis", params["type"])
}

func TestClient_PermissionDenied(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, `{"error": {"description": "Insufficient permissions; permission \"create\" required", "type": "mutationError"}}`)
	client := NewClient("proj", "production", "read-only", WithBaseURL(srv.URL))

	_, err := client.CreateOrReplace(context.Background(), testArticle())

	var permErr *store.PermissionError
	require.True(t, errors.As(err, &permErr), "expected PermissionError, got %v", err)
	assert.Equal(t, http.StatusForbidden, permErr.StatusCode)
	assert.Contains(t, permErr.Message, "Insufficient permissions")
	assert.NotEmpty(t, permErr.Hint())

	var rwe *store.RemoteWriteError
	assert.True(t, errors.As(err, &rwe), "a PermissionError is also a RemoteWriteError")
}

func TestClient_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `{"error": "Internal Server Error", "message": "boom"}`)
	client := NewClient("proj", "production", "sk", WithBaseURL(srv.URL))

	err := client.Delete(context.Background(), store.Query{Type: "policyAnalysis", Slug: "x"})

	var rwe *store.RemoteWriteError
	require.True(t, errors.As(err, &rwe))
	assert.Equal(t, store.OpDelete, rwe.Op)
	assert.Equal(t, http.StatusInternalServerError, rwe.StatusCode)
	assert.Equal(t, "boom", rwe.Message)

	var permErr *store.PermissionError
	assert.False(t, errors.As(err, &permErr))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient("proj", "production", "sk", WithBaseURL(srv.URL))

	_, err := client.Create(context.Background(), testArticle())

	var rwe *store.RemoteWriteError
	require.True(t, errors.As(err, &rwe))
	assert.Zero(t, rwe.StatusCode)
	assert.Error(t, rwe.Unwrap())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", errorMessage([]byte(`{"error":{"description":"bad"}}`)))
	assert.Equal(t, "Unauthorized", errorMessage([]byte(`{"error":"Unauthorized"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text")))
}

func TestClientOptions_HTTPClient(t *testing.T) {
	shared := &http.Client{}

	var c *Client
	require.NotPanics(t, func() {
		c = NewClient("proj", "production", "sk-test",
			WithHTTPClient(nil),
			WithTimeout(5*time.Second),
		)
	})
	require.NotNil(t, c.httpClient)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)

	c = NewClient("proj", "production", "sk-test",
		WithHTTPClient(shared),
		WithTimeout(5*time.Second),
	)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Zero(t, shared.Timeout, "the caller's client is not modified")
}
