package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/urfave/cli/v3"

	"wechat-cli/internal/wechat"
)

func draftCommand() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "manage unpublished drafts",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a draft from flags or an articles JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "JSON file containing an array of articles",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "article title",
					},
					&cli.StringFlag{
						Name:  "content",
						Usage: "article HTML content",
					},
					&cli.StringFlag{
						Name:  "content-file",
						Usage: "file containing the article HTML content",
					},
					&cli.StringFlag{
						Name:  "thumb-media-id",
						Usage: "media id of the cover image",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "article author",
					},
					&cli.StringFlag{
						Name:  "digest",
						Usage: "article digest shown in listings",
					},
					&cli.StringFlag{
						Name:  "source-url",
						Usage: "original content source URL",
					},
				},
				Action: draftAddAction,
			},
			{
				Name:  "list",
				Usage: "list drafts",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "offset",
						Usage: "zero-based listing offset",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "page size (1-20)",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "no-content",
						Usage: "omit article bodies from the listing",
					},
				},
				Action: draftListAction,
			},
			{
				Name:   "count",
				Usage:  "show the total number of drafts",
				Action: draftCountAction,
			},
		},
	}
}

// draftArticles assembles the article list from either --file or the
// per-article flags.
func draftArticles(cmd *cli.Command) ([]wechat.Article, error) {
	if path := cmd.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var articles []wechat.Article
		if err := json.Unmarshal(data, &articles); err != nil {
			return nil, err
		}
		return articles, nil
	}

	content := cmd.String("content")
	if path := cmd.String("content-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		content = string(data)
	}

	article := wechat.Article{
		Title:            cmd.String("title"),
		Author:           cmd.String("author"),
		Digest:           cmd.String("digest"),
		Content:          content,
		ContentSourceURL: cmd.String("source-url"),
		ThumbMediaID:     cmd.String("thumb-media-id"),
	}
	if article.Title == "" || article.Content == "" {
		return nil, nil
	}
	return []wechat.Article{article}, nil
}

func draftAddAction(ctx context.Context, cmd *cli.Command) error {
	articles, err := draftArticles(cmd)
	if err != nil {
		return failInvalid(err.Error())
	}
	if len(articles) == 0 {
		return failInvalid("provide --file, or --title with --content/--content-file")
	}

	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	mediaID, err := built.Client.AddDraft(ctx, articles)
	if err != nil {
		return fail(err)
	}

	return emit(map[string]string{"media_id": mediaID})
}

func draftListAction(ctx context.Context, cmd *cli.Command) error {
	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	list, err := built.Client.ListDrafts(ctx, cmd.Int("offset"), cmd.Int("count"), cmd.Bool("no-content"))
	if err != nil {
		return fail(err)
	}

	return emit(list)
}

func draftCountAction(ctx context.Context, cmd *cli.Command) error {
	_, built, err := components(ctx, cmd)
	if err != nil {
		return fail(err)
	}

	total, err := built.Client.CountDrafts(ctx)
	if err != nil {
		return fail(err)
	}

	return emit(map[string]int{"total_count": total})
}
