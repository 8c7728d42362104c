package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates an sfClient backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	return NewClient(sf, WithRateLimit(100))
}

func TestSFClient_Query(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"done":      true,
			"records": []map[string]any{{
				"attributes": map[string]any{"type": "Account"},
				"Id":         "001xx",
				"Name":       "Stripe",
				"Website":    "https://stripe.com",
			}},
		})
	}))

	var accounts []Account
	err := client.Query(context.Background(), "SELECT Id, Name, Website FROM Account", &accounts)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "001xx", accounts[0].ID)
	assert.Equal(t, "https://stripe.com", accounts[0].Website)
}

func TestSFClient_Query_Error(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	}))

	var accounts []Account
	err := client.Query(context.Background(), "INVALID", &accounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query")
}

func TestSFClient_InsertOne(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "001new", "success": true, "errors": []any{}})
	}))

	id, err := client.InsertOne(context.Background(), "Account", map[string]any{"Name": "Stripe"})
	require.NoError(t, err)
	assert.Equal(t, "001new", id)
}

func TestSFClient_InsertOne_Failure(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "",
			"success": false,
			"errors":  []map[string]any{{"message": "required field missing"}},
		})
	}))

	_, err := client.InsertOne(context.Background(), "Account", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert Account failed")
}

func TestSFClient_InsertCollection(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/composite/sobjects")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "003a", "success": true, "errors": []any{}},
			{"id": "003b", "success": true, "errors": []any{}},
		})
	}))

	results, err := client.InsertCollection(context.Background(), "Contact", []map[string]any{
		{"LastName": "Collison"}, {"LastName": "Smith"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "003a", results[0].ID)
	assert.True(t, results[1].Success)
}

func TestSFClient_UpdateOne(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	fields := map[string]any{"Industry": "Fintech"}
	err := client.UpdateOne(context.Background(), "Account", "001xx", fields)
	require.NoError(t, err)
	assert.NotContains(t, fields, "Id")
}

func TestSFClient_UpdateOne_Error(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid field", "errorCode": "INVALID_FIELD"},
		})
	}))

	err := client.UpdateOne(context.Background(), "Account", "001xx", map[string]any{"Bad": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: update")
}

func TestConnect_Validation(t *testing.T) {
	_, err := Connect(Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client id is required")

	_, err = Connect(Credentials{ClientID: "abc", KeyPath: filepath.Join(t.TempDir(), "missing.pem")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read JWT private key")
}
