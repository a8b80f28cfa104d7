package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// MediaType identifies a permanent material category.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVoice MediaType = "voice"
	MediaVideo MediaType = "video"
	MediaThumb MediaType = "thumb"
)

// VideoDescription is the extra metadata required when uploading video
// material.
type VideoDescription struct {
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
}

// UploadResult identifies uploaded permanent material. URL is only set for
// image and thumb uploads.
type UploadResult struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url,omitempty"`
}

// MaterialItem is one entry of a permanent material listing.
type MaterialItem struct {
	MediaID    string `json:"media_id"`
	Name       string `json:"name"`
	UpdateTime int64  `json:"update_time"`
	URL        string `json:"url,omitempty"`
}

// MaterialList is a page of permanent material.
type MaterialList struct {
	TotalCount int            `json:"total_count"`
	ItemCount  int            `json:"item_count"`
	Items      []MaterialItem `json:"item"`
}

// MaterialCount holds per-type totals of stored permanent material.
type MaterialCount struct {
	VoiceCount int `json:"voice_count"`
	VideoCount int `json:"video_count"`
	ImageCount int `json:"image_count"`
	NewsCount  int `json:"news_count"`
}

// UploadMaterial uploads a local file as permanent material of the given type
// and returns its media identifier. Video uploads require a description.
func (c *Client) UploadMaterial(ctx context.Context, path string, mediaType MediaType, desc *VideoDescription) (UploadResult, error) {
	if mediaType == MediaVideo && desc == nil {
		return UploadResult{}, fmt.Errorf("video upload requires a description")
	}

	file, err := os.Open(path)
	if err != nil {
		return UploadResult{}, err
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{}, err
	}

	if desc != nil {
		descJSON, err := json.Marshal(desc)
		if err != nil {
			return UploadResult{}, err
		}
		if err := writer.WriteField("description", string(descJSON)); err != nil {
			return UploadResult{}, err
		}
	}

	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	query := url.Values{}
	query.Set("type", string(mediaType))
	u, err := c.authURL(ctx, "/cgi-bin/material/add_material", query)
	if err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// ListMaterial returns a page of permanent material of the given type.
// Offset is zero-based; count is clamped by the platform to 1..20.
func (c *Client) ListMaterial(ctx context.Context, mediaType MediaType, offset, count int) (MaterialList, error) {
	payload := struct {
		Type   MediaType `json:"type"`
		Offset int       `json:"offset"`
		Count  int       `json:"count"`
	}{Type: mediaType, Offset: offset, Count: count}

	var result MaterialList
	if err := c.postJSON(ctx, "/cgi-bin/material/batchget_material", nil, payload, &result); err != nil {
		return MaterialList{}, err
	}
	return result, nil
}

// CountMaterial returns per-type totals of stored permanent material.
func (c *Client) CountMaterial(ctx context.Context) (MaterialCount, error) {
	var result MaterialCount
	if err := c.getJSON(ctx, "/cgi-bin/material/get_materialcount", nil, &result); err != nil {
		return MaterialCount{}, err
	}
	return result, nil
}
