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

var instagramContextJSON = regexp.MustCompile(`"contextJSON":"((?:[^"\\]|\\.)*)"`)

// instagramExtractor tries the media JSON endpoint first and falls back to
// the embed page, whose contextJSON blob survives for posts the JSON
// endpoint hides behind login.
type instagramExtractor struct {
	client *fetch.Client
}

func newInstagram(client *fetch.Client) *instagramExtractor {
	return &instagramExtractor{client: client}
}

func (e *instagramExtractor) Platform() platform.Platform { return platform.Instagram }

func (e *instagramExtractor) RequiresCookie() bool { return false }

func (e *instagramExtractor) Extract(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	data, err := e.extractFromJSON(ctx, pageURL, opts)
	if err == nil {
		return data, nil
	}
	if err.Kind == models.ErrNetwork || err.AuthRejected {
		return nil, err
	}

	return e.extractFromEmbed(ctx, pageURL, opts)
}

func (e *instagramExtractor) extractFromJSON(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	jsonURL := pageURL
	if strings.Contains(jsonURL, "?") {
		jsonURL += "&__a=1&__d=dis"
	} else {
		jsonURL += "?__a=1&__d=dis"
	}

	body, err := e.client.Do(ctx, fetch.Request{
		URL:     jsonURL,
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	payload := string(body)
	if !gjson.Valid(payload) {
		// A login wall serves HTML on this endpoint.
		return nil, newError(models.ErrCredentialRequired, "login required")
	}
	if gjson.Get(payload, "require_login").Bool() ||
		gjson.Get(payload, "message").String() == "login_required" {
		return nil, newError(models.ErrCredentialRequired, "login required")
	}

	media := gjson.Get(payload, "graphql.shortcode_media")
	if !media.Exists() {
		media = gjson.Get(payload, "items.0")
	}
	if !media.Exists() {
		return nil, newError(models.ErrNotFound, "no media found in response")
	}

	return instagramMedia(media)
}

func (e *instagramExtractor) extractFromEmbed(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	embedURL := strings.TrimSuffix(pageURL, "/") + "/embed/captioned/"

	body, err := e.client.Do(ctx, fetch.Request{
		URL:     embedURL,
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	m := instagramContextJSON.FindStringSubmatch(string(body))
	if m == nil {
		return nil, newError(models.ErrCredentialRequired, "login required")
	}

	contextJSON := decodeJSONString(m[1])
	media := gjson.Get(contextJSON, "gql_data.shortcode_media")
	if !media.Exists() {
		media = gjson.Get(contextJSON, "gql_data.xdt_shortcode_media")
	}
	if !media.Exists() {
		return nil, newError(models.ErrNotFound, "no media found in embed")
	}

	return instagramMedia(media)
}

// instagramMedia normalizes a GraphQL media node, expanding carousels into
// one format per child.
func instagramMedia(media gjson.Result) (*models.MediaData, *Error) {
	var formats []models.MediaFormat

	appendNode := func(node gjson.Result) {
		if video := node.Get("video_url").String(); video != "" {
			formats = append(formats, models.MediaFormat{URL: video, Quality: "hd", Kind: models.MediaVideo})
			return
		}
		if img := node.Get("display_url").String(); img != "" {
			formats = append(formats, models.MediaFormat{URL: img, Kind: models.MediaImage})
		}
	}

	children := media.Get("edge_sidecar_to_children.edges")
	if children.Exists() && len(children.Array()) > 0 {
		children.ForEach(func(_, edge gjson.Result) bool {
			appendNode(edge.Get("node"))
			return true
		})
	} else {
		appendNode(media)
	}

	formats = dedupeFormats(formats)
	if len(formats) == 0 {
		return nil, newError(models.ErrNotFound, "no media found in post")
	}

	return &models.MediaData{
		Title:     media.Get("edge_media_to_caption.edges.0.node.text").String(),
		Author:    media.Get("owner.username").String(),
		Thumbnail: media.Get("display_url").String(),
		Formats:   formats,
	}, nil
}
