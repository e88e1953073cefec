package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Open(ctx context.Context, entryID string) error
	Edit(ctx context.Context, entryID string) error
	Show(ctx context.Context, entryID string) error
	CloseEntry(ctx context.Context, entryID string) error
	Upload(ctx context.Context, entryID, path string) error
	Download(ctx context.Context, assetID string) error
	Assets(ctx context.Context, entryID string) error
	DeleteAsset(ctx context.Context, assetID string) error
	Logout(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command and dispatches
// to methods on 'a'. Unknown commands are reported back to the user. The
// loop exits on scanner EOF or when the user types "exit" or "quit".
//
// Command handlers report their own errors; the loop prints and continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("daybook> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		arg := func(i int) string {
			if i < len(args) {
				return args[i]
			}
			return ""
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: open <id>, edit <id>, show <id>, close <id>, upload <id> <path>, download <assetId>, assets <id>, rmasset <assetId>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "open":
			err = a.Open(ctx, arg(0))

		case "edit":
			err = a.Edit(ctx, arg(0))

		case "show":
			err = a.Show(ctx, arg(0))

		case "close":
			err = a.CloseEntry(ctx, arg(0))

		case "upload":
			err = a.Upload(ctx, arg(0), arg(1))

		case "download":
			err = a.Download(ctx, arg(0))

		case "assets":
			err = a.Assets(ctx, arg(0))

		case "rmasset":
			err = a.DeleteAsset(ctx, arg(0))

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
