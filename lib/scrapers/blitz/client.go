package blitz

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"blitzwatch/lib/restyutil"
	"blitzwatch/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("blitzwatch.lib.scrapers.blitz")

const DefaultBaseUrl = "https://beta.blitzserver.net"

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// defaults to 30 seconds
	Timeout time.Duration
	// wraps the transport so requests look like they come from a browser
	BypassCloudflare bool
	// optional sink for full request/response dumps at debug level
	Output restyutil.InstrumentOutput
}

type Client struct {
	baseUrl string
	http    *resty.Client
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := strings.TrimSuffix(opts.BaseUrl, "/")
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	restyutil.InstrumentClient(client, tracer, opts.Output)

	return &Client{baseUrl: baseUrl, http: client}
}

// GameUrl is the human facing link to a game's status tab.
func (c *Client) GameUrl(gameId string) string {
	return fmt.Sprintf("%s/game/%s#status", c.baseUrl, gameId)
}

// FetchStatusPage returns the raw html of a game page. Any failure,
// including a non-200 answer, is a *FetchError.
func (c *Client) FetchStatusPage(ctx context.Context, gameId string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchStatusPage")
	defer span.End()
	span.SetAttributes(attribute.String("game_id", gameId))

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("gameId", gameId).
		Get("/game/{gameId}")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch status page")
		return "", &FetchError{GameId: gameId, Err: err}
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, res.Status())
		return "", &FetchError{GameId: gameId, StatusCode: res.StatusCode()}
	}

	return res.String(), nil
}

// FetchSnapshot fetches and parses a game page in one go.
func (c *Client) FetchSnapshot(ctx context.Context, gameId string) (GameSnapshot, error) {
	page, err := c.FetchStatusPage(ctx, gameId)
	if err != nil {
		return GameSnapshot{}, err
	}
	return ParseStatusPage(page)
}
