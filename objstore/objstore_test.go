package objstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(
		"https://storage.googleapis.com/resenapp-media/resenas/r1/a.jpg",
		PublicURL("resenapp-media", "resenas/r1/a.jpg"),
	)
	// each segment is percent-encoded; separators survive
	assert.Equal(
		"https://storage.googleapis.com/resenapp-media/resenas/r1/foto%20de%20ba%C3%B1o.jpg",
		PublicURL("resenapp-media", "resenas/r1/foto de baño.jpg"),
	)
}

func TestMemObjectStoreDelete(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemObjectStore("b")
	s.Put("resenas/r1/a.jpg")

	assert.NoError(s.Delete(ctx, "resenas/r1/a.jpg", false))
	// second delete: gone, but ignoreMissing tolerates it
	assert.Error(s.Delete(ctx, "resenas/r1/a.jpg", false))
	assert.NoError(s.Delete(ctx, "resenas/r1/a.jpg", true))

	assert.Len(s.DeleteAttempts(), 3)
}
