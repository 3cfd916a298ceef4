package visual

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikelihoodOrdering(t *testing.T) {
	assert := assert.New(t)

	assert.True(LikelihoodUnknown < VeryUnlikely)
	assert.True(VeryUnlikely < Unlikely)
	assert.True(Unlikely < Possible)
	assert.True(Possible < Likely)
	assert.True(Likely < VeryLikely)

	assert.Equal(Likely, ParseLikelihood("LIKELY"))
	assert.Equal(VeryUnlikely, ParseLikelihood("very_unlikely"))
	assert.Equal(LikelihoodUnknown, ParseLikelihood("whatever"))
	assert.Equal(LikelihoodUnknown, ParseLikelihood(""))
}

func TestFlaggedThreshold(t *testing.T) {
	assert := assert.New(t)

	clean := SafeSearchAnnotation{Adult: Possible, Violence: Possible, Racy: Possible}
	assert.Empty(clean.Flagged())

	// unknown never blocks
	unknown := SafeSearchAnnotation{}
	assert.Empty(unknown.Flagged())

	one := SafeSearchAnnotation{Racy: Likely}
	assert.Equal([]string{"racy=LIKELY"}, one.Flagged())

	two := SafeSearchAnnotation{Adult: VeryLikely, Medical: Likely}
	assert.Len(two.Flagged(), 2)
}

type errClassifier struct{}

func (errClassifier) Annotate(ctx context.Context, imageURI string) (*SafeSearchAnnotation, error) {
	return nil, fmt.Errorf("boom")
}

func TestModeratePolicies(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	v, err := Moderate(ctx, errClassifier{}, "gs://b/p", FailClosed)
	assert.Error(err)
	assert.False(v.Approved)
	assert.Equal("error analyzing image", v.Details)

	v, err = Moderate(ctx, errClassifier{}, "gs://b/p", FailOpen)
	assert.Error(err)
	assert.True(v.Approved)

	// nil classifier only approves when fail-open was chosen
	v, err = Moderate(ctx, nil, "gs://b/p", FailOpen)
	assert.NoError(err)
	assert.True(v.Approved)

	v, err = Moderate(ctx, nil, "gs://b/p", FailClosed)
	assert.Error(err)
	assert.False(v.Approved)
}

func TestSafeSearchClientAnnotate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("POST", r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"responses":[{"safeSearchAnnotation":{
			"adult":"VERY_UNLIKELY","spoof":"UNLIKELY","medical":"UNKNOWN",
			"violence":"LIKELY","racy":"POSSIBLE"}}]}`)
	}))
	defer srv.Close()

	client := &SafeSearchClient{Client: srv.Client(), Endpoint: srv.URL}
	anno, err := client.Annotate(ctx, "gs://bucket/resenas/r1/a.jpg")
	assert.NoError(err)
	assert.Equal(VeryUnlikely, anno.Adult)
	assert.Equal(Likely, anno.Violence)
	assert.Equal([]string{"violence=LIKELY"}, anno.Flagged())
}

func TestSafeSearchClientAnnotationError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"responses":[{"error":{"code":7,"message":"no access"}}]}`)
	}))
	defer srv.Close()

	client := &SafeSearchClient{Client: srv.Client(), Endpoint: srv.URL}
	_, err := client.Annotate(ctx, "gs://bucket/resenas/r1/a.jpg")
	assert.ErrorContains(err, "no access")
}

func TestSafeSearchClientHTTPError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := &SafeSearchClient{Client: srv.Client(), Endpoint: srv.URL}
	_, err := client.Annotate(ctx, "gs://bucket/resenas/r1/a.jpg")
	assert.ErrorContains(err, "statusCode=403")
}
