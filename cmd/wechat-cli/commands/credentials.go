package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"wechat-cli/internal/credstore"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "manage stored app credentials",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "save credentials to the configured store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "app-id",
						Usage: "application identifier",
					},
					&cli.StringFlag{
						Name:  "app-secret",
						Usage: "application secret (prompted when omitted)",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "message-push verification token",
					},
					&cli.StringFlag{
						Name:  "encoding-aes-key",
						Usage: "message-push encoding AES key",
					},
				},
				Action: configSetAction,
			},
			{
				Name:   "get",
				Usage:  "show stored credentials (secret redacted)",
				Action: configGetAction,
			},
		},
	}
}

func configSetAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return failInvalid(err.Error())
	}

	update := credstore.Credentials{
		AppID:          cmd.String("app-id"),
		AppSecret:      cmd.String("app-secret"),
		Token:          cmd.String("token"),
		EncodingAESKey: cmd.String("encoding-aes-key"),
	}

	// Prompt for the secret without echo when setting an app id
	// non-interactively would leave the pair incomplete.
	if update.AppID != "" && update.AppSecret == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "App secret: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fail(err)
		}
		update.AppSecret = strings.TrimSpace(string(secret))
	}

	if update == (credstore.Credentials{}) {
		return failInvalid("nothing to set: provide at least one of --app-id, --app-secret, --token, --encoding-aes-key")
	}

	store, err := cfg.Credentials.NewStore()
	if err != nil {
		return fail(err)
	}

	if err := store.Save(ctx, update); err != nil {
		return fail(err)
	}

	saved, err := store.Load(ctx)
	if err != nil {
		return fail(err)
	}

	return emit(redact(saved))
}

func configGetAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return failInvalid(err.Error())
	}

	store, err := cfg.Credentials.NewStore()
	if err != nil {
		return fail(err)
	}

	creds, err := credstore.Resolve(ctx, store)
	if err != nil {
		return fail(err)
	}

	return emit(redact(creds))
}

// redactedCredentials is the display form of stored credentials.
type redactedCredentials struct {
	AppID          string `json:"app_id"`
	AppSecret      string `json:"app_secret"`
	Token          string `json:"token,omitempty"`
	EncodingAESKey string `json:"encoding_aes_key,omitempty"`
}

// redact masks the app secret, keeping enough to recognize it.
func redact(creds credstore.Credentials) redactedCredentials {
	return redactedCredentials{
		AppID:          creds.AppID,
		AppSecret:      mask(creds.AppSecret),
		Token:          creds.Token,
		EncodingAESKey: mask(creds.EncodingAESKey),
	}
}

func mask(s string) string {
	if len(s) <= 6 {
		return strings.Repeat("*", len(s))
	}
	return s[:3] + strings.Repeat("*", len(s)-6) + s[len(s)-3:]
}
