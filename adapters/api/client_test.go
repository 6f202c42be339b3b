package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	apperrors "bhss/internal/errors"
	"bhss/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *FileTokenStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := NewFileTokenStore(filepath.Join(t.TempDir(), "auth.json"))
	client, err := NewClient(&Config{BaseURL: srv.URL, Timeout: 5 * time.Second, TokenFile: "unused"}, tokens)
	require.NoError(t, err)
	return client, tokens
}

func TestLoginPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var in models.LoginInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ana@bhss.ph", in.Email)
		_ = json.NewEncoder(w).Encode(models.Session{Token: "tok-1", User: models.User{Email: in.Email, Name: "Ana"}})
	})
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.User{Email: "ana@bhss.ph", Name: "Ana"})
	})
	client, tokens := newTestClient(t, mux)
	ctx := context.Background()

	session, err := client.Login(ctx, "ana@bhss.ph", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", session.Token)

	stored, err := tokens.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tok-1", stored.Token)
	assert.Equal(t, "Ana", stored.User.Name)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@bhss.ph", me.Email)

	require.NoError(t, client.Logout())
	assert.Empty(t, client.Token())
}

func TestMissingTokenNeverDispatches(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))

	err := client.Get(context.Background(), "/api/events", nil, &[]models.CalendarEvent{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetCode(err))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestResponseErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"error field", http.StatusBadRequest, `{"error":"date is required","code":"VALIDATION_ERROR"}`, apperrors.CodeExternalService, "date is required"},
		{"message field", http.StatusConflict, `{"message":"already exists"}`, apperrors.CodeExternalService, "already exists"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid token"}`, apperrors.CodeUnauthorized, "invalid token"},
		{"plain text", http.StatusBadGateway, `upstream down`, apperrors.CodeExternalService, "Request failed (502)"},
		{"empty", http.StatusInternalServerError, ``, apperrors.CodeExternalService, "Request failed (500)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			require.NoError(t, tokens.Save(Auth{Token: "tok"}))

			err := client.Get(context.Background(), "/api/events", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestQueryAndDelete(t *testing.T) {
	var gotQuery, gotMethod string
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	require.NoError(t, tokens.Save(Auth{Token: "tok"}))
	ctx := context.Background()

	filter := models.RecordFilter{From: "2025-06-01", Municipality: "Abucay"}
	require.NoError(t, client.Get(ctx, "/api/attendance/history", filter.Values(), nil))
	assert.Equal(t, "from=2025-06-01&municipality=Abucay", gotQuery)

	require.NoError(t, client.Delete(ctx, "/api/admin/events/1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestUploadAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2025-2026", r.FormValue("schoolYear"))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"filename": header.Filename, "size": len(data)})
	})
	mux.HandleFunc("/report.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.3")
	})
	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.Save(Auth{Token: "tok"}))
	ctx := context.Background()

	var out struct {
		Filename string `json:"filename"`
		Size     int    `json:"size"`
	}
	err := client.Upload(ctx, "/upload", map[string]string{"schoolYear": "2025-2026"},
		[]Part{{Field: "file", Filename: "rows.csv", Body: bytes.NewBufferString("a,b\n")}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "rows.csv", out.Filename)
	assert.Equal(t, 4, out.Size)

	var buf bytes.Buffer
	require.NoError(t, client.Download(ctx, "/report.pdf", nil, &buf))
	assert.Equal(t, "%PDF-1.3", buf.String())
}

func TestFileTokenStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	store := NewFileTokenStore(path)
	auth, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, auth)

	require.NoError(t, store.Save(Auth{Token: "tok", User: models.User{Name: "Ana"}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var values map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &values))
	assert.Contains(t, values, AuthKey)
	assert.JSONEq(t, `"dark"`, string(values["theme"]))

	require.NoError(t, store.Clear())
	auth, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ws://localhost:8080/ws", cfg.WebSocketURL())

	cfg.BaseURL = "https://bhss.example.ph/"
	assert.Equal(t, "wss://bhss.example.ph/ws", cfg.WebSocketURL())

	cfg.BaseURL = "bhss.example.ph"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}
