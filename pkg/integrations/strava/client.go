package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	httputil "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/http"
)

// PageSize is the largest page the activities endpoint serves.
const PageSize = 200

// Client is an API client for the Strava v3 API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. An empty baseURL uses the
// production API and a nil httpClient a 30 second timeout client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = shared.StravaAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
}

// ActivitiesAfter returns every activity of the authenticated athlete that
// started strictly after after, in the order the API returns them.
func (c *Client) ActivitiesAfter(ctx context.Context, accessToken string, after time.Time) ([]activity.Attributes, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.client.Timeout

	var all []activity.Attributes
	for page := 1; ; page++ {
		batch, err := c.listPage(ctx, hc, after, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < PageSize {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, hc *http.Client, after time.Time, page int) ([]activity.Attributes, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(after.Unix(), 10))
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list activities page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, fmt.Errorf("list activities page %d: %w", page, err)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var batch []activity.Attributes
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode activities page %d: %w", page, err)
	}
	return batch, nil
}
