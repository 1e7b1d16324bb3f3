package archive

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/constants"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	fake := &fakeS3{}
	u := NewS3UploaderWithClient(fake, Config{Bucket: "bizscan", Region: "ap-northeast-2", Prefix: "workbooks/"}, nil)

	url, err := u.Upload(t.Context(), "result.xlsx", []byte("xlsx"))
	require.NoError(t, err)

	assert.Equal(t, "https://bizscan.s3.ap-northeast-2.amazonaws.com/workbooks/result.xlsx", url)
	assert.Equal(t, "bizscan", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "workbooks/result.xlsx", aws.ToString(fake.in.Key))
	assert.Equal(t, constants.XLSXContentType, aws.ToString(fake.in.ContentType))
	assert.Equal(t, []byte("xlsx"), fake.body)
}

func TestS3Uploader_Error(t *testing.T) {
	u := NewS3UploaderWithClient(&fakeS3{err: assert.AnError}, Config{Bucket: "b"}, nil)
	_, err := u.Upload(t.Context(), "k", nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNopUploader(t *testing.T) {
	loc, err := NopUploader{}.Upload(t.Context(), "k", []byte("x"))
	assert.NoError(t, err)
	assert.Empty(t, loc)
}
