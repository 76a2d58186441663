package extractor

import (
	"bytes"
	"context"
	"net/http"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

var (
	fbHDURL    = regexp.MustCompile(`"browser_native_hd_url":"((?:[^"\\]|\\.)*)"`)
	fbSDURL    = regexp.MustCompile(`"browser_native_sd_url":"((?:[^"\\]|\\.)*)"`)
	fbVideoTag = regexp.MustCompile(`"playable_url(?:_quality_hd)?":"((?:[^"\\]|\\.)*)"`)
)

// facebookExtractor scrapes the watch page for the browser-native stream
// URLs and falls back to OpenGraph tags. DASH manifests are ignored; only
// progressive renditions are returned.
type facebookExtractor struct {
	client *fetch.Client
}

func newFacebook(client *fetch.Client) *facebookExtractor {
	return &facebookExtractor{client: client}
}

func (e *facebookExtractor) Platform() platform.Platform { return platform.Facebook }

func (e *facebookExtractor) RequiresCookie() bool { return false }

func (e *facebookExtractor) Extract(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	body, err := e.client.Do(ctx, fetch.Request{
		URL:     pageURL,
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	var formats []models.MediaFormat
	if m := fbHDURL.FindSubmatch(body); m != nil {
		formats = append(formats, models.MediaFormat{URL: decodeJSONString(string(m[1])), Quality: "hd", Kind: models.MediaVideo})
	}
	if m := fbSDURL.FindSubmatch(body); m != nil {
		formats = append(formats, models.MediaFormat{URL: decodeJSONString(string(m[1])), Quality: "sd", Kind: models.MediaVideo})
	}
	if len(formats) == 0 {
		for _, m := range fbVideoTag.FindAllSubmatch(body, -1) {
			formats = append(formats, models.MediaFormat{URL: decodeJSONString(string(m[1])), Kind: models.MediaVideo})
		}
	}

	var title, thumbnail string
	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr == nil {
		title = metaContent(doc, "og:title")
		thumbnail = metaContent(doc, "og:image")
		if len(formats) == 0 {
			if video := metaContent(doc, "og:video"); video != "" {
				formats = append(formats, models.MediaFormat{URL: video, Quality: "sd", Kind: models.MediaVideo})
			}
		}
	}

	formats = dedupeFormats(formats)
	if len(formats) == 0 {
		// Private and age-gated videos render a login interstitial with
		// no stream URLs in the markup.
		return nil, newError(models.ErrCredentialRequired, "no public media found, login may be required")
	}

	return &models.MediaData{
		Title:     title,
		Thumbnail: thumbnail,
		Formats:   formats,
	}, nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return content
}
