package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"wechat-cli/internal/wechat"
)

func mediaCommand() *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "manage permanent material",
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "upload a local file as permanent material",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "material type (image|voice|video|thumb)",
						Value: string(wechat.MediaImage),
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "video title (video uploads only)",
					},
					&cli.StringFlag{
						Name:  "introduction",
						Usage: "video introduction (video uploads only)",
					},
				},
				Action: mediaUploadAction,
			},
			{
				Name:  "list",
				Usage: "list permanent material",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "material type (image|voice|video|news)",
						Value: string(wechat.MediaImage),
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "zero-based listing offset",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "page size (1-20)",
						Value: 20,
					},
				},
				Action: mediaListAction,
			},
			{
				Name:   "count",
				Usage:  "show per-type material totals",
				Action: mediaCountAction,
			},
		},
	}
}

func mediaUploadAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return failInvalid("file argument is required")
	}

	mediaType := wechat.MediaType(cmd.String("type"))
	var desc *wechat.VideoDescription
	if mediaType == wechat.MediaVideo {
		desc = &wechat.VideoDescription{
			Title:        cmd.String("title"),
			Introduction: cmd.String("introduction"),
		}
	}

	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	result, err := built.Client.UploadMaterial(ctx, path, mediaType, desc)
	if err != nil {
		return fail(err)
	}

	return emit(result)
}

func mediaListAction(ctx context.Context, cmd *cli.Command) error {
	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	list, err := built.Client.ListMaterial(ctx, wechat.MediaType(cmd.String("type")), cmd.Int("offset"), cmd.Int("count"))
	if err != nil {
		return fail(err)
	}

	return emit(list)
}

func mediaCountAction(ctx context.Context, cmd *cli.Command) error {
	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	count, err := built.Client.CountMaterial(ctx)
	if err != nil {
		return fail(err)
	}

	return emit(count)
}
