package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/cryptox"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const saltSize = 16

// Register prompts for a username and password and creates an account. The
// password never leaves the machine: the client generates a salt, derives
// the key and sends only the salt and the verifier.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	if err := a.api.Register(ctx, userName, salt, cryptox.MakeVerifier(key)); err != nil {
		return err
	}

	fmt.Println("Success! You can now log in.")
	return nil
}

// Login fetches the salt, re-derives the key locally and authenticates with
// the verifier. On success the derived key becomes the master key for entry
// and asset encryption, and the sync engine starts.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	salt, err := a.api.Salt(ctx, userName)
	if err != nil {
		return err
	}

	key := cryptox.DeriveKey(password, salt)

	if _, err := a.api.Login(ctx, userName, cryptox.MakeVerifier(key)); err != nil {
		common.WipeByteArray(key)
		return err
	}

	a.masterKey = key
	a.userName = userName
	a.startEngine()

	fmt.Println("Logged in.")
	return nil
}

// Logout tears down sync sessions and wipes the master key.
func (a *App) Logout(_ context.Context) error {
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	if a.masterKey != nil {
		common.WipeByteArray(a.masterKey)
		a.masterKey = nil
	}
	a.userName = ""
	a.api.SetToken("")
	fmt.Println("Logged out.")
	return nil
}
