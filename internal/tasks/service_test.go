package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatasks/nova/internal/errors"
)

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRestService_List(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(listResponse{Items: []Task{
			{ID: "t1", Title: "buy coffee", Status: StatusNeedsAction},
			{ID: "t2", Title: "weekly report", Status: StatusCompleted},
		}})
	}))
	defer srv.Close()

	tokenPath := writeTokenFile(t, `{"token":"tok-123"}`)
	svc := NewRestService(srv.URL, tokenPath, 5*time.Second)

	items, err := svc.List(context.Background(), "@default")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "buy coffee", items[0].Title)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/lists/@default/tasks", gotPath)
}

func TestRestService_Insert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var in Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "created-1"
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	tokenPath := writeTokenFile(t, `{"access_token":"tok-raw"}`)
	svc := NewRestService(srv.URL, tokenPath, 5*time.Second)

	created, err := svc.Insert(context.Background(), "@default", Task{Title: "buy coffee", Due: "2026-08-29T09:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)
	assert.Equal(t, "buy coffee", created.Title)
}

func TestRestService_PatchAndDelete(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(Task{ID: "t1", Status: StatusCompleted})
	}))
	defer srv.Close()

	tokenPath := writeTokenFile(t, `{"token":"tok"}`)
	svc := NewRestService(srv.URL, tokenPath, 5*time.Second)

	updated, err := svc.Patch(context.Background(), "@default", "t1", Task{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	require.NoError(t, svc.Delete(context.Background(), "@default", "t1"))

	require.Equal(t, []string{
		"PATCH /lists/@default/tasks/t1",
		"DELETE /lists/@default/tasks/t1",
	}, methods)
}

func TestRestService_UnauthorizedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokenPath := writeTokenFile(t, `{"token":"expired"}`)
	svc := NewRestService(srv.URL, tokenPath, 5*time.Second)

	_, err := svc.List(context.Background(), "@default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestRestService_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tokenPath := writeTokenFile(t, `{"token":"tok"}`)
	svc := NewRestService(srv.URL, tokenPath, 5*time.Second)

	_, err := svc.List(context.Background(), "@default")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrTransient))
}

func TestRestService_MissingToken(t *testing.T) {
	svc := NewRestService("http://unused", filepath.Join(t.TempDir(), "absent.json"), time.Second)

	_, err := svc.List(context.Background(), "@default")
	require.Error(t, err)
}

func TestRestService_TokenKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"snapshot key", `{"token":"aaa"}`, "aaa", false},
		{"oauth key", `{"access_token":"bbb"}`, "bbb", false},
		{"oauth key wins", `{"token":"aaa","access_token":"bbb"}`, "bbb", false},
		{"no token", `{"other":"x"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRestService("http://unused", writeTokenFile(t, tt.content), time.Second)
			got, err := svc.accessToken()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
