package s3bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/programme-lv/classroom/s3bucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemBucket(t *testing.T) {
	ctx := context.Background()
	b := s3bucket.NewMemBucket("http://localhost:8080/evidence/")

	url, err := b.Upload(ctx, []byte("%PDF"), "evidence/2024/09/01/x.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/evidence/evidence/2024/09/01/x.pdf", url)

	ok, err := b.Exists(ctx, "evidence/2024/09/01/x.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	content, err := b.Download(ctx, "evidence/2024/09/01/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), content)

	signed, err := b.PresignedURL(ctx, "evidence/2024/09/01/x.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, signed, "expires=")

	_, err = b.PresignedURL(ctx, "missing", time.Hour)
	require.Error(t, err)

	require.NoError(t, b.Delete(ctx, "evidence/2024/09/01/x.pdf"))
	ok, err = b.Exists(ctx, "evidence/2024/09/01/x.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = b.Download(ctx, "evidence/2024/09/01/x.pdf")
	require.Error(t, err)
	require.NoError(t, b.Delete(ctx, "evidence/2024/09/01/x.pdf"))
}
