package wechat

import (
	"context"
	"fmt"
)

// Article is one article of a draft.
type Article struct {
	Title              string `json:"title"`
	Author             string `json:"author,omitempty"`
	Digest             string `json:"digest,omitempty"`
	Content            string `json:"content"`
	ContentSourceURL   string `json:"content_source_url,omitempty"`
	ThumbMediaID       string `json:"thumb_media_id"`
	NeedOpenComment    int    `json:"need_open_comment"`
	OnlyFansCanComment int    `json:"only_fans_can_comment"`
}

// DraftItem is one entry of a draft listing.
type DraftItem struct {
	MediaID string `json:"media_id"`
	Content struct {
		NewsItems []Article `json:"news_item"`
	} `json:"content"`
	UpdateTime int64 `json:"update_time"`
}

// DraftList is a page of drafts.
type DraftList struct {
	TotalCount int         `json:"total_count"`
	ItemCount  int         `json:"item_count"`
	Items      []DraftItem `json:"item"`
}

// AddDraft creates an unpublished draft from the given articles and returns
// its media identifier.
func (c *Client) AddDraft(ctx context.Context, articles []Article) (string, error) {
	if len(articles) == 0 {
		return "", fmt.Errorf("draft requires at least one article")
	}

	payload := struct {
		Articles []Article `json:"articles"`
	}{Articles: articles}

	var result struct {
		MediaID string `json:"media_id"`
	}
	if err := c.postJSON(ctx, "/cgi-bin/draft/add", nil, payload, &result); err != nil {
		return "", err
	}
	return result.MediaID, nil
}

// ListDrafts returns a page of drafts. When noContent is true article bodies
// are omitted from the listing.
func (c *Client) ListDrafts(ctx context.Context, offset, count int, noContent bool) (DraftList, error) {
	payload := struct {
		Offset    int `json:"offset"`
		Count     int `json:"count"`
		NoContent int `json:"no_content"`
	}{Offset: offset, Count: count}
	if noContent {
		payload.NoContent = 1
	}

	var result DraftList
	if err := c.postJSON(ctx, "/cgi-bin/draft/batchget", nil, payload, &result); err != nil {
		return DraftList{}, err
	}
	return result, nil
}

// CountDrafts returns the total number of drafts.
func (c *Client) CountDrafts(ctx context.Context) (int, error) {
	var result struct {
		TotalCount int `json:"total_count"`
	}
	if err := c.getJSON(ctx, "/cgi-bin/draft/count", nil, &result); err != nil {
		return 0, err
	}
	return result.TotalCount, nil
}
