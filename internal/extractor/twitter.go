package extractor

import (
	"context"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

var twitterStatusID = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// twitterExtractor resolves tweets through the syndication CDN, which
// serves tweet JSON without authentication for public posts.
type twitterExtractor struct {
	client *fetch.Client
	// apiBase is swapped for a test server in tests.
	apiBase string
}

func newTwitter(client *fetch.Client) *twitterExtractor {
	return &twitterExtractor{
		client:  client,
		apiBase: "https://cdn.syndication.twimg.com",
	}
}

func (e *twitterExtractor) Platform() platform.Platform { return platform.Twitter }

func (e *twitterExtractor) RequiresCookie() bool { return false }

func (e *twitterExtractor) Extract(ctx context.Context, pageURL string, opts Options) (*models.MediaData, *Error) {
	m := twitterStatusID.FindStringSubmatch(pageURL)
	if m == nil {
		return nil, newError(models.ErrNotFound, "no status id in url")
	}
	id := m[1]

	body, err := e.client.Do(ctx, fetch.Request{
		URL:     e.apiBase + "/tweet-result?id=" + id + "&lang=en&token=" + syndicationToken(id),
		Headers: http.Header(opts.Headers),
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, classify(err)
	}

	payload := string(body)
	if t := gjson.Get(payload, "__typename").String(); t == "TweetTombstone" {
		return nil, newError(models.ErrNotFound, "tweet unavailable")
	}

	var formats []models.MediaFormat

	// Highest bitrate first so formats[0] is the best rendition.
	variants := gjson.Get(payload, "video.variants").Array()
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Get("bitrate").Int() > variants[j].Get("bitrate").Int()
	})
	for i, v := range variants {
		src := v.Get("src").String()
		if src == "" || strings.Contains(v.Get("type").String(), "mpegURL") {
			continue
		}
		quality := "sd"
		if i == 0 {
			quality = "hd"
		}
		formats = append(formats, models.MediaFormat{URL: src, Quality: quality, Kind: models.MediaVideo})
	}

	gjson.Get(payload, "photos").ForEach(func(_, photo gjson.Result) bool {
		if u := photo.Get("url").String(); u != "" {
			formats = append(formats, models.MediaFormat{URL: u, Kind: models.MediaImage})
		}
		return true
	})

	formats = dedupeFormats(formats)
	if len(formats) == 0 {
		return nil, newError(models.ErrNotFound, "no media found in tweet")
	}

	return &models.MediaData{
		Title:     gjson.Get(payload, "text").String(),
		Author:    gjson.Get(payload, "user.name").String(),
		Thumbnail: gjson.Get(payload, "video.poster").String(),
		Formats:   formats,
	}, nil
}

// syndicationToken derives the access token the CDN expects for a tweet id:
// (id / 1e15) * pi rendered in base 36, zeros stripped.
func syndicationToken(id string) string {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return "0"
	}
	x := n / 1e15 * math.Pi

	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	intPart := uint64(x)
	frac := x - float64(intPart)

	var b strings.Builder
	b.WriteString(strconv.FormatUint(intPart, 36))
	for i := 0; i < 12 && frac > 0; i++ {
		frac *= 36
		d := int(frac)
		b.WriteByte(digits[d])
		frac -= float64(d)
	}

	return strings.ReplaceAll(b.String(), "0", "")
}
