package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/daybook/internal/cryptox"
)

var errNotLoggedIn = errors.New("log in first")
var errMissingArgument = errors.New("missing argument, see help")

// Open starts a sync session for the entry: the engine connects, exchanges
// deltas and keeps the local copy fresh while the entry stays open.
func (a *App) Open(_ context.Context, entryID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if entryID == "" {
		return errMissingArgument
	}
	a.engine.SyncOnOpen(entryID)
	fmt.Println("Entry opened, syncing in background.")
	return nil
}

// Edit reads new entry text, encrypts it under the master key and hands it
// to the engine, which saves locally and pushes after the debounce.
func (a *App) Edit(_ context.Context, entryID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if entryID == "" {
		return errMissingArgument
	}

	text, err := GetMultiline(a.reader, "Enter entry text", os.Stdout)
	if err != nil {
		return err
	}

	ciphertext, nonce, tag, err := cryptox.Seal([]byte(text), a.masterKey)
	if err != nil {
		return err
	}
	// nonce travels separately; the tag rides at the end of the payload
	payload := append(ciphertext, tag...)

	a.engine.NoteLocalEdit(entryID, payload, nonce)
	fmt.Println("Saved.")
	return nil
}

// Show decrypts and prints the cached copy of the entry.
func (a *App) Show(ctx context.Context, entryID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if entryID == "" {
		return errMissingArgument
	}

	entry, err := a.store.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Deleted {
		fmt.Println("(deleted)")
		return nil
	}

	text, err := a.decryptPayload(entry.Payload, entry.PayloadNonce)
	if err != nil {
		return err
	}
	fmt.Printf("%s (version %d)\n%s\n", entry.ID, entry.Version, text)
	return nil
}

// CloseEntry flushes any pending edit and tears down the entry's session.
func (a *App) CloseEntry(_ context.Context, entryID string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if entryID == "" {
		return errMissingArgument
	}
	a.engine.DisconnectOnClose(entryID)
	fmt.Println("Entry closed.")
	return nil
}

func (a *App) decryptPayload(payload, nonce []byte) ([]byte, error) {
	if len(payload) < cryptox.TagSize {
		return nil, errors.New("payload too short")
	}
	split := len(payload) - cryptox.TagSize
	return cryptox.Open(payload[:split], nonce, payload[split:], a.masterKey)
}

// printRemoteUpdate is the engine's applied-update callback.
func (a *App) printRemoteUpdate(entryID string, payload, nonce []byte) {
	text, err := a.decryptPayload(payload, nonce)
	if err != nil {
		printlnFn("Entry", entryID, "updated from another device (cannot decrypt:", err.Error()+")")
		return
	}
	printlnFn("Entry", entryID, "updated from another device:")
	printlnFn(string(text))
}
