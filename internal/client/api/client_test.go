package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daybook/internal/cryptox"
)

func TestClient_UploadAsset(t *testing.T) {
	var gotAuth string
	var gotFields map[string]string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/assets/upload", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for name, values := range r.MultipartForm.Value {
			gotFields[name] = values[0]
		}
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		gotFile = buf[:n]

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(UploadResult{ID: "a1", URL: "/api/assets/a1", IsEncrypted: true})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok")

	result, err := c.UploadAsset(context.Background(), &AssetUpload{
		EntryID:  "entry-1",
		Filename: "clip.webm",
		MimeType: "audio/webm",
		Data:     []byte("opus"),
		Encryption: cryptox.EncryptionMeta{
			WrappedDEK:     "d3Jh",
			DEKNonce:       "bm9u",
			DEKAuthTag:     "dGFn",
			ContentNonce:   "Y25v",
			ContentAuthTag: "Y3Rh",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "a1", result.ID)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "entry-1", gotFields["entryId"])
	assert.Equal(t, "d3Jh", gotFields["wrappedDek"])
	assert.Equal(t, "Y3Rh", gotFields["contentAuthTag"])
	assert.Equal(t, []byte("opus"), gotFile)
}

func TestClient_UploadAsset_OmitsEmptyEncryptionFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for name := range r.MultipartForm.Value {
			assert.NotContains(t, []string{"wrappedDek", "dekNonce", "dekAuthTag", "contentNonce", "contentAuthTag"}, name)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(UploadResult{ID: "a1"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.UploadAsset(context.Background(), &AssetUpload{Filename: "f", Data: []byte("x")})
	require.NoError(t, err)
}

func TestClient_DownloadAsset_Encrypted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/assets/a1", r.URL.Path)
		w.Header().Set("Content-Type", "audio/webm")
		w.Header().Set("X-Encrypted", "true")
		w.Header().Set("X-Wrapped-DEK", "d3Jh")
		w.Header().Set("X-DEK-Nonce", "bm9u")
		w.Header().Set("X-DEK-Auth-Tag", "dGFn")
		w.Header().Set("X-Content-Nonce", "Y25v")
		w.Header().Set("X-Content-Auth-Tag", "Y3Rh")
		w.Write([]byte("ciphertext"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	dl, err := c.DownloadAsset(context.Background(), "a1")
	require.NoError(t, err)

	assert.Equal(t, []byte("ciphertext"), dl.Data)
	assert.Equal(t, "audio/webm", dl.MimeType)
	require.NotNil(t, dl.Encryption)
	assert.True(t, dl.Encryption.Complete())
	assert.Equal(t, "d3Jh", dl.Encryption.WrappedDEK)
}

func TestClient_DownloadAsset_Unencrypted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	dl, err := c.DownloadAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.Nil(t, dl.Encryption)
	assert.Equal(t, []byte("plain"), dl.Data)
}

func TestClient_ErrorBodyBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Asset not found", "code": "NOT_FOUND"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.AssetMetadata(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestClient_SaltPostsUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/salt", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		json.NewEncoder(w).Encode(map[string]any{"salt": []byte{9, 8, 7}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	salt, err := c.Salt(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, salt)
}

func TestClient_LoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		json.NewEncoder(w).Encode(TokenPair{AccessToken: "acc", RefreshToken: "ref"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	pair, err := c.Login(context.Background(), "alice", []byte("verifier"))
	require.NoError(t, err)
	assert.Equal(t, "acc", pair.AccessToken)
	assert.Equal(t, "acc", c.Token())
}
