// Object storage adapter for uploaded review images.
//
// The moderation pipeline only ever deletes objects and builds public URLs for them;
// uploads happen client-side, directly against the bucket.
package objstore

import (
	"context"
	"net/url"
	"strings"
)

type ObjectStore interface {
	// Bucket is the name of the backing bucket, used for public URL construction.
	Bucket() string
	// Delete removes an object. With ignoreMissing set, deleting an absent object is
	// not an error (uploads can race their own cleanup under at-least-once delivery).
	Delete(ctx context.Context, path string, ignoreMissing bool) error
}

// PublicURL builds the canonical public address of an object, percent-encoding each
// path segment.
func PublicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "https://storage.googleapis.com/" + bucket + "/" + strings.Join(segments, "/")
}
