package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/daybook/internal/cryptox"
)

// AssetUpload is one file destined for the server. Encryption is either
// complete (client encrypted the data first) or empty.
type AssetUpload struct {
	EntryID    string
	Filename   string
	MimeType   string
	Data       []byte
	Encryption cryptox.EncryptionMeta
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	IsEncrypted bool   `json:"isEncrypted"`
}

// AssetInfo is the metadata projection of a stored asset.
type AssetInfo struct {
	ID          string                  `json:"id"`
	EntryID     string                  `json:"entryId"`
	Filename    string                  `json:"filename"`
	MimeType    string                  `json:"mimeType"`
	Size        int64                   `json:"size"`
	IsEncrypted bool                    `json:"isEncrypted"`
	CreatedAt   int64                   `json:"createdAt"`
	Encryption  *cryptox.EncryptionMeta `json:"encryption,omitempty"`
}

// AssetDownload is a fetched asset: raw stored bytes plus the envelope
// needed to decrypt them when the asset is encrypted.
type AssetDownload struct {
	Data       []byte
	MimeType   string
	Encryption *cryptox.EncryptionMeta
}

// UploadAsset sends the file as multipart/form-data. The encryption values
// travel as sibling form fields and are stored verbatim by the server.
func (c *Client) UploadAsset(ctx context.Context, up *AssetUpload) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"entryId":        up.EntryID,
		"wrappedDek":     up.Encryption.WrappedDEK,
		"dekNonce":       up.Encryption.DEKNonce,
		"dekAuthTag":     up.Encryption.DEKAuthTag,
		"contentNonce":   up.Encryption.ContentNonce,
		"contentAuthTag": up.Encryption.ContentAuthTag,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	fw, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(up.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/assets/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadAsset fetches the stored bytes. For encrypted assets the envelope
// comes back in response headers.
func (c *Client) DownloadAsset(ctx context.Context, id string) (*AssetDownload, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/assets/"+id, "", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset body: %w", err)
	}

	dl := &AssetDownload{Data: data, MimeType: resp.Header.Get("Content-Type")}
	if resp.Header.Get("X-Encrypted") == "true" {
		dl.Encryption = &cryptox.EncryptionMeta{
			WrappedDEK:     resp.Header.Get("X-Wrapped-DEK"),
			DEKNonce:       resp.Header.Get("X-DEK-Nonce"),
			DEKAuthTag:     resp.Header.Get("X-DEK-Auth-Tag"),
			ContentNonce:   resp.Header.Get("X-Content-Nonce"),
			ContentAuthTag: resp.Header.Get("X-Content-Auth-Tag"),
		}
	}
	return dl, nil
}

// AssetMetadata fetches the metadata row without the bytes.
func (c *Client) AssetMetadata(ctx context.Context, id string) (*AssetInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/assets/"+id+"/metadata", "", nil)
	if err != nil {
		return nil, err
	}
	var info AssetInfo
	if err := c.doJSON(req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteAsset removes the asset's bytes and metadata.
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/assets/"+id, "", nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// ListEntryAssets lists the assets attached to one entry.
func (c *Client) ListEntryAssets(ctx context.Context, entryID string) ([]AssetInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/assets/entry/"+entryID, "", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Assets []AssetInfo `json:"assets"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}
