package extractor

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

const douyinDataMarker = "RENDER_DATA"

// douyinExtractor parses Douyin's server-rendered RENDER_DATA block. The
// block is percent-encoded JSON; the watermark-free rendition is the play
// address with the playwm path segment rewritten to play.
type douyinExtractor struct {
	client *fetch.Client
}

func newDouyin(client *fetch.Client) *douyinExtractor {
	return &douyinExtractor{client: client}
}

func (e *douyinExtractor) Platform() platform.Platform { return platform.Douyin }

func (e *douyinExtractor) RequiresCookie() bool { return false }

func (e *douyinExtractor) Extract(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	body, err := e.client.Do(ctx, fetch.Request{
		URL:     pageURL,
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	raw, ok := scriptJSON(string(body), douyinDataMarker)
	if !ok {
		return nil, newError(models.ErrNotFound, "no media found on page")
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		decoded = raw
	}

	item := findDouyinItem(decoded)
	if !item.Exists() {
		return nil, newError(models.ErrNotFound, "no media found on page")
	}

	var formats []models.MediaFormat
	if play := item.Get("video.playAddr.0.src").String(); play != "" {
		formats = append(formats, douyinVideoFormat(play))
	}
	if play := item.Get("video.play_addr.url_list.0").String(); play != "" {
		formats = append(formats, douyinVideoFormat(play))
	}
	item.Get("images").ForEach(func(_, img gjson.Result) bool {
		if u := img.Get("urlList.0").String(); u != "" {
			formats = append(formats, models.MediaFormat{URL: u, Kind: models.MediaImage})
		}
		return true
	})

	formats = dedupeFormats(formats)
	if len(formats) == 0 {
		return nil, newError(models.ErrNotFound, "no media found on page")
	}

	title := item.Get("desc").String()
	author := item.Get("authorInfo.nickname").String()
	if author == "" {
		author = item.Get("author.nickname").String()
	}
	thumbnail := item.Get("video.cover").String()
	if thumbnail == "" {
		thumbnail = item.Get("video.cover.url_list.0").String()
	}

	return &models.MediaData{
		Title:     title,
		Author:    author,
		Thumbnail: thumbnail,
		Formats:   formats,
	}, nil
}

// findDouyinItem probes the known item locations inside the decoded
// RENDER_DATA payload; key layout differs between web and share pages.
func findDouyinItem(decoded string) gjson.Result {
	for _, path := range []string{
		"aweme.detail",
		"app.videoInfoRes.item_list.0",
	} {
		if item := gjson.Get(decoded, path); item.Exists() {
			return item
		}
	}

	// Numeric top-level keys on web detail pages; the item lives under
	// whichever carries an aweme.detail.
	var found gjson.Result
	gjson.Parse(decoded).ForEach(func(_, value gjson.Result) bool {
		if item := value.Get("aweme.detail"); item.Exists() {
			found = item
			return false
		}
		return true
	})
	return found
}

func douyinVideoFormat(playURL string) models.MediaFormat {
	if strings.HasPrefix(playURL, "//") {
		playURL = "https:" + playURL
	}
	return models.MediaFormat{
		URL:     strings.Replace(playURL, "/playwm/", "/play/", 1),
		Quality: "hd",
		Kind:    models.MediaVideo,
	}
}
