package resolve

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lacquer/internal/badge"
	"lacquer/internal/mediaserver"
	"lacquer/internal/providers/omdb"
	"lacquer/internal/providers/tmdb"
)

// streamAudioProvider reads the audio codec from the item's technical streams.
// The media server already delivered the streams with the item, so this tier
// performs no network I/O.
type streamAudioProvider struct{}

func (streamAudioProvider) Name() string { return "server-streams-audio" }

func (streamAudioProvider) Fetch(_ context.Context, item *mediaserver.Item) (badge.Data, error) {
	stream, ok := item.AudioStream()
	if !ok || strings.TrimSpace(stream.Codec) == "" {
		return badge.Data{}, fmt.Errorf("%w: item has no audio stream", ErrNotAvailable)
	}
	value := normalizeAudioCodec(stream.Codec, stream.Profile)
	return badge.Data{
		Value: value,
		Extra: map[string]string{
			"channels": strconv.Itoa(stream.Channels),
			"layout":   stream.ChannelLayout,
		},
	}, nil
}

func normalizeAudioCodec(codec, profile string) string {
	codec = strings.ToLower(strings.TrimSpace(codec))
	profile = strings.ToLower(strings.TrimSpace(profile))
	switch {
	case codec == "truehd" && strings.Contains(profile, "atmos"):
		return "truehd-atmos"
	case codec == "eac3" && strings.Contains(profile, "atmos"):
		return "eac3-atmos"
	case codec == "dts" && strings.Contains(profile, "dts:x"):
		return "dts-x"
	case codec == "dts" && strings.Contains(profile, "ma"):
		return "dts-hd-ma"
	case codec == "dts" && strings.Contains(profile, "hd"):
		return "dts-hd"
	default:
		return codec
	}
}

// streamResolutionProvider maps the video stream dimensions onto the
// conventional resolution ladder.
type streamResolutionProvider struct{}

func (streamResolutionProvider) Name() string { return "server-streams-resolution" }

func (streamResolutionProvider) Fetch(_ context.Context, item *mediaserver.Item) (badge.Data, error) {
	stream, ok := item.VideoStream()
	if !ok || (stream.Width <= 0 && stream.Height <= 0) {
		return badge.Data{}, fmt.Errorf("%w: item has no video stream", ErrNotAvailable)
	}
	return badge.Data{Value: resolutionValue(stream.Width, stream.Height)}, nil
}

func resolutionValue(width, height int) string {
	// Width decides for scope (letterboxed) content where the stored height
	// is well below the format's nominal height.
	switch {
	case width >= 7600 || height >= 4000:
		return "4320p"
	case width >= 3800 || height >= 2000:
		return "2160p"
	case width >= 2500 || height >= 1350:
		return "1440p"
	case width >= 1900 || height >= 1000:
		return "1080p"
	case width >= 1260 || height >= 690:
		return "720p"
	default:
		return "480p"
	}
}

// omdbReviewProvider resolves a 0-100 review score through OMDb, preferring
// Rotten Tomatoes over the IMDb community rating.
type omdbReviewProvider struct {
	client omdb.Fetcher
}

// NewOMDbReviewProvider builds the OMDb review tier.
func NewOMDbReviewProvider(client omdb.Fetcher) Provider {
	return &omdbReviewProvider{client: client}
}

func (p *omdbReviewProvider) Name() string { return "omdb-review" }

func (p *omdbReviewProvider) Fetch(ctx context.Context, item *mediaserver.Item) (badge.Data, error) {
	result, err := p.lookup(ctx, item)
	if err != nil {
		return badge.Data{}, err
	}
	if score, ok := result.RottenTomatoes(); ok {
		return reviewData(score, "rotten-tomatoes"), nil
	}
	if score, ok := result.IMDbScore(); ok {
		return reviewData(score*10, "imdb"), nil
	}
	return badge.Data{}, fmt.Errorf("%w: omdb result has no usable rating", ErrNotAvailable)
}

func (p *omdbReviewProvider) lookup(ctx context.Context, item *mediaserver.Item) (*omdb.Result, error) {
	if imdbID := item.ProviderID("Imdb"); imdbID != "" {
		result, err := p.client.ByIMDbID(ctx, imdbID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, omdb.ErrNotFound) {
			return nil, err
		}
	}
	result, err := p.client.ByTitle(ctx, item.Name, item.ProductionYear)
	if errors.Is(err, omdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: omdb has no entry for %q", ErrNotAvailable, item.Name)
	}
	return result, err
}

// tmdbReviewProvider resolves a 0-100 review score from the TMDB community
// vote average.
type tmdbReviewProvider struct {
	client tmdb.Fetcher
}

// NewTMDBReviewProvider builds the TMDB review tier.
func NewTMDBReviewProvider(client tmdb.Fetcher) Provider {
	return &tmdbReviewProvider{client: client}
}

func (p *tmdbReviewProvider) Name() string { return "tmdb-review" }

func (p *tmdbReviewProvider) Fetch(ctx context.Context, item *mediaserver.Item) (badge.Data, error) {
	raw := item.ProviderID("Tmdb")
	if raw == "" {
		return badge.Data{}, fmt.Errorf("%w: item has no tmdb id", ErrNotAvailable)
	}
	tmdbID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return badge.Data{}, fmt.Errorf("%w: malformed tmdb id %q", ErrNotAvailable, raw)
	}

	var details *tmdb.Details
	if item.IsMovie() {
		details, err = p.client.MovieDetails(ctx, tmdbID)
	} else {
		details, err = p.client.TVDetails(ctx, tmdbID)
	}
	if errors.Is(err, tmdb.ErrNotFound) {
		return badge.Data{}, fmt.Errorf("%w: tmdb has no entry for id %d", ErrNotAvailable, tmdbID)
	}
	if err != nil {
		return badge.Data{}, err
	}
	if details.VoteCount == 0 || details.VoteAverage <= 0 {
		return badge.Data{}, fmt.Errorf("%w: tmdb entry has no votes", ErrNotAvailable)
	}
	return reviewData(details.VoteAverage*10, "tmdb"), nil
}

// serverReviewProvider falls back to the media server's own community rating.
type serverReviewProvider struct{}

// NewServerReviewProvider builds the media-server community rating tier.
func NewServerReviewProvider() Provider { return serverReviewProvider{} }

func (serverReviewProvider) Name() string { return "server-review" }

func (serverReviewProvider) Fetch(_ context.Context, item *mediaserver.Item) (badge.Data, error) {
	if item.CommunityRating <= 0 {
		return badge.Data{}, fmt.Errorf("%w: item has no community rating", ErrNotAvailable)
	}
	return reviewData(item.CommunityRating*10, "server"), nil
}

func reviewData(score float64, source string) badge.Data {
	if score > 100 {
		score = 100
	}
	return badge.Data{
		Value: "percent",
		Score: score,
		Extra: map[string]string{"rating_source": source},
	}
}

// omdbAwardsProvider classifies the OMDb awards line into an award token.
type omdbAwardsProvider struct {
	client omdb.Fetcher
}

// NewOMDbAwardsProvider builds the OMDb awards tier.
func NewOMDbAwardsProvider(client omdb.Fetcher) Provider {
	return &omdbAwardsProvider{client: client}
}

func (p *omdbAwardsProvider) Name() string { return "omdb-awards" }

func (p *omdbAwardsProvider) Fetch(ctx context.Context, item *mediaserver.Item) (badge.Data, error) {
	reviews := &omdbReviewProvider{client: p.client}
	result, err := reviews.lookup(ctx, item)
	if err != nil {
		return badge.Data{}, err
	}
	if !result.HasAwards() {
		return badge.Data{}, fmt.Errorf("%w: no awards recorded for %q", ErrNotAvailable, item.Name)
	}
	return badge.Data{
		Value: classifyAwards(result.Awards),
		Extra: map[string]string{"awards_text": result.Awards},
	}, nil
}

func classifyAwards(text string) string {
	lowered := strings.ToLower(text)
	won := strings.Contains(lowered, "won")
	switch {
	case won && strings.Contains(lowered, "oscar"):
		return "oscars"
	case won && strings.Contains(lowered, "emmy"):
		return "emmys"
	case won && strings.Contains(lowered, "golden globe"):
		return "golden-globes"
	case won && strings.Contains(lowered, "bafta"):
		return "bafta"
	case strings.Contains(lowered, "palme d'or") || strings.Contains(lowered, "cannes"):
		return "cannes"
	default:
		return "wins"
	}
}

// demoProvider serves a fixed placeholder so posters can be previewed before
// any provider credentials are configured. The same input always produces the
// same value.
type demoProvider struct {
	badgeType badge.Type
}

// NewDemoProvider builds the static demo tier for a badge type.
func NewDemoProvider(badgeType badge.Type) Provider {
	return demoProvider{badgeType: badgeType}
}

func (p demoProvider) Name() string { return "demo-" + string(p.badgeType) }

func (p demoProvider) Fetch(context.Context, *mediaserver.Item) (badge.Data, error) {
	switch p.badgeType {
	case badge.TypeAudio:
		return badge.Data{Value: "truehd"}, nil
	case badge.TypeResolution:
		return badge.Data{Value: "1080p"}, nil
	case badge.TypeReview:
		return reviewData(75, "demo"), nil
	case badge.TypeAwards:
		return badge.Data{Value: "wins"}, nil
	default:
		return badge.Data{}, fmt.Errorf("no demo data for badge type %q", p.badgeType)
	}
}
