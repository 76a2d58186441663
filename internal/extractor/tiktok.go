package extractor

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

const tiktokDataMarker = "__UNIVERSAL_DATA_FOR_REHYDRATION__"

// tiktokExtractor parses the rehydration JSON TikTok embeds in its
// server-rendered video pages. Short links (vt/vm) resolve through the
// client's redirect following before the page is parsed.
type tiktokExtractor struct {
	client *fetch.Client
}

func newTikTok(client *fetch.Client) *tiktokExtractor {
	return &tiktokExtractor{client: client}
}

func (e *tiktokExtractor) Platform() platform.Platform { return platform.TikTok }

func (e *tiktokExtractor) RequiresCookie() bool { return false }

func (e *tiktokExtractor) Extract(ctx context.Context, url string, opts Options) (*models.MediaData, *Error) {
	body, err := e.client.Do(ctx, fetch.Request{
		URL:     url,
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	raw, ok := scriptJSON(string(body), tiktokDataMarker)
	if !ok {
		return nil, newError(models.ErrNotFound, "no media found on page")
	}

	item := gjson.Get(raw, `__DEFAULT_SCOPE__.webapp\.video-detail.itemInfo.itemStruct`)
	if !item.Exists() {
		// The rehydration block is present but carries no item when the
		// video is private or the session is challenged.
		status := gjson.Get(raw, `__DEFAULT_SCOPE__.webapp\.video-detail.statusCode`)
		if status.Int() != 0 {
			return nil, newError(models.ErrUpstreamRejected, "video unavailable")
		}
		return nil, newError(models.ErrNotFound, "no media found on page")
	}

	var formats []models.MediaFormat
	if hd := item.Get("video.downloadAddr").String(); hd != "" {
		formats = append(formats, models.MediaFormat{URL: hd, Quality: "hd", Kind: models.MediaVideo})
	}
	if sd := item.Get("video.playAddr").String(); sd != "" {
		formats = append(formats, models.MediaFormat{URL: sd, Quality: "sd", Kind: models.MediaVideo})
	}
	if music := item.Get("music.playUrl").String(); music != "" {
		formats = append(formats, models.MediaFormat{URL: music, Quality: "audio", Kind: models.MediaAudio})
	}

	// Photo-mode posts carry an image list instead of a video struct.
	item.Get("imagePost.images").ForEach(func(_, img gjson.Result) bool {
		if u := img.Get("imageURL.urlList.0").String(); u != "" {
			formats = append(formats, models.MediaFormat{URL: u, Kind: models.MediaImage})
		}
		return true
	})

	formats = dedupeFormats(formats)
	if len(formats) == 0 {
		return nil, newError(models.ErrNotFound, "no media found on page")
	}

	return &models.MediaData{
		Title:     item.Get("desc").String(),
		Author:    item.Get("author.nickname").String(),
		Thumbnail: item.Get("video.cover").String(),
		Formats:   formats,
	}, nil
}
