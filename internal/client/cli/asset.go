package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/daybook/internal/client/api"
	"github.com/dmitrijs2005/daybook/internal/cryptox"
	"github.com/dmitrijs2005/daybook/internal/filex"
)

const downloadsDir = "downloads"

// Upload envelope-encrypts a local file under the master key and sends it to
// the server attached to the given entry.
func (a *App) Upload(ctx context.Context, entryID, path string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if entryID == "" || path == "" {
		return errMissingArgument
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cipher, err := cryptox.EncryptAsset(data, a.masterKey)
	if err != nil {
		return err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	result, err := a.api.UploadAsset(ctx, &api.AssetUpload{
		EntryID:    entryID,
		Filename:   filepath.Base(path),
		MimeType:   mimeType,
		Data:       cipher.Ciphertext,
		Encryption: cipher.Meta(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %s as %s\n", filepath.Base(path), result.ID)
	return nil
}

// Download fetches an asset, decrypts it when it carries an envelope, and
// writes it into the downloads directory under its original name.
func (a *App) Download(ctx context.Context, assetID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if assetID == "" {
		return errMissingArgument
	}

	info, err := a.api.AssetMetadata(ctx, assetID)
	if err != nil {
		return err
	}

	dl, err := a.api.DownloadAsset(ctx, assetID)
	if err != nil {
		return err
	}

	data := dl.Data
	if dl.Encryption != nil {
		cipher, err := cryptox.DecodeMeta(dl.Data, *dl.Encryption)
		if err != nil {
			return err
		}
		data, err = cryptox.DecryptAsset(cipher, a.masterKey)
		if err != nil {
			return err
		}
	}

	dir, err := filex.EnsureSubDir(downloadsDir)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, filepath.Base(info.Filename))
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return err
	}

	fmt.Println("Saved to", target)
	return nil
}

// Assets lists the files attached to one entry.
func (a *App) Assets(ctx context.Context, entryID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if entryID == "" {
		return errMissingArgument
	}

	assets, err := a.api.ListEntryAssets(ctx, entryID)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		fmt.Println("No assets.")
		return nil
	}
	for _, asset := range assets {
		encrypted := ""
		if asset.IsEncrypted {
			encrypted = " (encrypted)"
		}
		fmt.Printf("%s  %s  %d bytes%s\n", asset.ID, asset.Filename, asset.Size, encrypted)
	}
	return nil
}

// DeleteAsset removes an asset from the server.
func (a *App) DeleteAsset(ctx context.Context, assetID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if assetID == "" {
		return errMissingArgument
	}
	if err := a.api.DeleteAsset(ctx, assetID); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}
