package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/resenapp/escoba/util"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const defaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// SafeSearchClient calls the hosted safe-search annotation API for an image already
// sitting in the bucket (the API pulls it by gs:// URI; the image bytes never pass
// through this service).
type SafeSearchClient struct {
	Client   *http.Client
	Endpoint string
	APIKey   string
	Limiter  *rate.Limiter
}

var _ Classifier = (*SafeSearchClient)(nil)

func NewSafeSearchClient(apiKey string, rps int) *SafeSearchClient {
	return &SafeSearchClient{
		Client:   util.RobustHTTPClient(),
		Endpoint: defaultEndpoint,
		APIKey:   apiKey,
		Limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// request/response wire schema, from the annotate API reference
type annotateRequest struct {
	Requests []annotateRequestEntry `json:"requests"`
}

type annotateRequestEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Source annotateImageSource `json:"source"`
}

type annotateImageSource struct {
	ImageURI string `json:"imageUri"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []annotateResponseEntry `json:"responses"`
}

type annotateResponseEntry struct {
	SafeSearch *SafeSearchAnnotation `json:"safeSearchAnnotation"`
	Error      *annotateStatus       `json:"error"`
}

type annotateStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *SafeSearchClient) Annotate(ctx context.Context, imageURI string) (*SafeSearchAnnotation, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqBody, err := json.Marshal(annotateRequest{
		Requests: []annotateRequestEntry{{
			Image:    annotateImage{Source: annotateImageSource{ImageURI: imageURI}},
			Features: []annotateFeature{{Type: "SAFE_SEARCH_DETECTION"}},
		}},
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.Endpoint
	if c.APIKey != "" {
		endpoint = endpoint + "?key=" + c.APIKey
	}
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "escoba/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		safesearchAPIDuration.Observe(time.Since(start).Seconds())
	}()

	res, err := c.Client.Do(req)
	if err != nil {
		safesearchAPICount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("safe-search request failed: %w", err)
	}
	defer res.Body.Close()

	safesearchAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("safe-search request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read safe-search resp body: %w", err)
	}

	var respObj annotateResponse
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return nil, fmt.Errorf("failed to parse safe-search resp JSON: %w", err)
	}
	if len(respObj.Responses) == 0 {
		return nil, fmt.Errorf("safe-search response was empty")
	}
	entry := respObj.Responses[0]
	if entry.Error != nil {
		return nil, fmt.Errorf("safe-search annotation error code=%d: %s", entry.Error.Code, entry.Error.Message)
	}
	if entry.SafeSearch == nil {
		return nil, fmt.Errorf("safe-search response missing annotation")
	}
	return entry.SafeSearch, nil
}
