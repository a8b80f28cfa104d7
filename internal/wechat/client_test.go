package wechat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wechat-cli/internal/accesstoken"
)

// staticTokens hands out a fixed token without any lifecycle logic.
type staticTokens struct {
	token string
}

func (s staticTokens) Token(ctx context.Context) (accesstoken.Token, error) {
	return accesstoken.Token{AccessToken: s.token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestFetcherParsesTokenResponse(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/token", r.URL.Path)
		gotQuery = map[string]string{
			"grant_type": r.URL.Query().Get("grant_type"),
			"appid":      r.URL.Query().Get("appid"),
			"secret":     r.URL.Query().Get("secret"),
		}
		_, _ = w.Write([]byte(`{"access_token":"T1","expires_in":7200}`))
	}))
	defer ts.Close()

	fetch := NewFetcher(ts.URL, ts.Client())

	before := time.Now()
	token, err := fetch(t.Context(), "wx123", "secret")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"grant_type": "client_credential",
		"appid":      "wx123",
		"secret":     "secret",
	}, gotQuery)
	assert.Equal(t, "T1", token.AccessToken)
	assert.WithinDuration(t, before.Add(7200*time.Second), token.ExpiresAt, 5*time.Second)
}

func TestFetcherSurfacesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":40001,"errmsg":"invalid credential"}`))
	}))
	defer ts.Close()

	fetch := NewFetcher(ts.URL, ts.Client())

	_, err := fetch(t.Context(), "wx123", "bad-secret")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 40001, apiErr.Code)
	assert.Equal(t, "invalid credential", apiErr.Message)
}

func TestFetcherWrapsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	fetch := NewFetcher(ts.URL, nil)

	_, err := fetch(t.Context(), "wx123", "secret")
	assert.ErrorIs(t, err, accesstoken.ErrNetwork)
}

func TestClientAttachesAccessToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TOK", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"total_count":3}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	total, err := client.CountDrafts(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestAddDraft(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/draft/add", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var payload struct {
			Articles []Article `json:"articles"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Articles, 1)
		assert.Equal(t, "你好，世界", payload.Articles[0].Title)

		_, _ = w.Write([]byte(`{"media_id":"DRAFT_MEDIA_ID"}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	mediaID, err := client.AddDraft(t.Context(), []Article{{
		Title:        "你好，世界",
		Content:      "<p>body</p>",
		ThumbMediaID: "THUMB",
	}})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT_MEDIA_ID", mediaID)
}

func TestAddDraftRequiresArticles(t *testing.T) {
	client := NewClient(staticTokens{token: "TOK"})

	_, err := client.AddDraft(t.Context(), nil)
	assert.Error(t, err)
}

func TestListDrafts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Offset    int `json:"offset"`
			Count     int `json:"count"`
			NoContent int `json:"no_content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 5, payload.Offset)
		assert.Equal(t, 10, payload.Count)
		assert.Equal(t, 1, payload.NoContent)

		_, _ = w.Write([]byte(`{"total_count":12,"item_count":1,"item":[{"media_id":"M1","update_time":1700000000}]}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	list, err := client.ListDrafts(t.Context(), 5, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 12, list.TotalCount)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "M1", list.Items[0].MediaID)
}

func TestListMaterial(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/material/batchget_material", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_count":1,"item_count":1,"item":[{"media_id":"IMG1","name":"cover.png","update_time":1700000000,"url":"https://mmbiz.example/img"}]}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	list, err := client.ListMaterial(t.Context(), MediaImage, 0, 20)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "IMG1", list.Items[0].MediaID)
	assert.Equal(t, "cover.png", list.Items[0].Name)
}

func TestCountMaterial(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"voice_count":1,"video_count":2,"image_count":3,"news_count":4}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	count, err := client.CountMaterial(t.Context())
	require.NoError(t, err)
	assert.Equal(t, MaterialCount{VoiceCount: 1, VideoCount: 2, ImageCount: 3, NewsCount: 4}, count)
}

func TestUploadMaterial(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cover.png"
	require.NoError(t, os.WriteFile(path, []byte("fake-png-bytes"), 0600))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/material/add_material", r.URL.Path)
		assert.Equal(t, "image", r.URL.Query().Get("type"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("media")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "cover.png", header.Filename)

		_, _ = w.Write([]byte(`{"media_id":"IMG_MEDIA_ID","url":"https://mmbiz.example/img"}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	result, err := client.UploadMaterial(t.Context(), path, MediaImage, nil)
	require.NoError(t, err)
	assert.Equal(t, "IMG_MEDIA_ID", result.MediaID)
	assert.Equal(t, "https://mmbiz.example/img", result.URL)
}

func TestUploadVideoRequiresDescription(t *testing.T) {
	client := NewClient(staticTokens{token: "TOK"})

	_, err := client.UploadMaterial(t.Context(), "video.mp4", MediaVideo, nil)
	assert.Error(t, err)
}

func TestAPIErrorOnOperation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":45009,"errmsg":"reach max api daily quota limit"}`))
	}))
	defer ts.Close()

	client := NewClient(staticTokens{token: "TOK"}, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	_, err := client.CountDrafts(t.Context())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 45009, apiErr.Code)
}
