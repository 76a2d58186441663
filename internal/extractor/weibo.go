package extractor

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

var (
	weiboStatusPath = regexp.MustCompile(`(?:/status(?:es)?/|/detail/)([0-9A-Za-z]+)`)
	weiboShortPath  = regexp.MustCompile(`weibo\.com/\d+/([0-9A-Za-z]+)`)
	htmlTag         = regexp.MustCompile(`<[^>]+>`)
)

// weiboExtractor resolves posts through the m.weibo.cn status API. Weibo
// serves nothing without authenticated session state, so this is the one
// extractor that unconditionally requires a cookie.
type weiboExtractor struct {
	client *fetch.Client
	// apiBase is swapped for a test server in tests.
	apiBase string
}

func newWeibo(client *fetch.Client) *weiboExtractor {
	return &weiboExtractor{
		client:  client,
		apiBase: "https://m.weibo.cn",
	}
}

func (e *weiboExtractor) Platform() platform.Platform { return platform.Weibo }

func (e *weiboExtractor) RequiresCookie() bool { return true }

func (e *weiboExtractor) Extract(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	id := weiboID(pageURL)
	if id == "" {
		return nil, newError(models.ErrNotFound, "no status id in url")
	}

	body, err := e.client.Do(ctx, fetch.Request{
		URL:     e.apiBase + "/statuses/show?id=" + id,
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	payload := string(body)
	status := gjson.Get(payload, "data")
	if !status.Exists() {
		status = gjson.Parse(payload)
	}
	if gjson.Get(payload, "ok").Exists() && gjson.Get(payload, "ok").Int() != 1 {
		return nil, newError(models.ErrNotFound, "status unavailable")
	}

	var formats []models.MediaFormat

	// Video renditions live under page_info.media_info, best first.
	mediaInfo := status.Get("page_info.media_info")
	for _, key := range []string{"mp4_720p_mp4", "mp4_hd_url", "mp4_sd_url", "stream_url_hd", "stream_url"} {
		if u := mediaInfo.Get(key).String(); u != "" {
			quality := "sd"
			if len(formats) == 0 {
				quality = "hd"
			}
			formats = append(formats, models.MediaFormat{URL: u, Quality: quality, Kind: models.MediaVideo})
		}
	}

	status.Get("pics").ForEach(func(_, pic gjson.Result) bool {
		u := pic.Get("large.url").String()
		if u == "" {
			u = pic.Get("url").String()
		}
		if u != "" {
			formats = append(formats, models.MediaFormat{URL: u, Kind: models.MediaImage})
		}
		return true
	})

	formats = dedupeFormats(formats)
	if len(formats) == 0 {
		return nil, newError(models.ErrNotFound, "no media found in status")
	}

	return &models.MediaData{
		Title:     strings.TrimSpace(htmlTag.ReplaceAllString(status.Get("text").String(), "")),
		Author:    status.Get("user.screen_name").String(),
		Thumbnail: status.Get("page_info.page_pic.url").String(),
		Formats:   formats,
	}, nil
}

// weiboID pulls the status id from the mobile, desktop and detail URL shapes.
func weiboID(pageURL string) string {
	if m := weiboStatusPath.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	if m := weiboShortPath.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	return ""
}
