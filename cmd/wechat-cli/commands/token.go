package commands

import (
	"context"

	"github.com/urfave/cli/v3"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "manage the access token",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "print the current access token, fetching one if needed",
				Action: tokenGetAction,
			},
			{
				Name:   "refresh",
				Usage:  "discard any cached token and fetch a fresh one",
				Action: tokenRefreshAction,
			},
		},
	}
}

func tokenGetAction(ctx context.Context, cmd *cli.Command) error {
	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	token, err := built.Tokens.Token(ctx)
	if err != nil {
		return fail(err)
	}

	return emit(token)
}

func tokenRefreshAction(ctx context.Context, cmd *cli.Command) error {
	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	token, err := built.Tokens.Refresh(ctx)
	if err != nil {
		return fail(err)
	}

	return emit(token)
}
