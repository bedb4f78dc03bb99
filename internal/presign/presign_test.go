package presign

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/aerialops/uplink/internal/api"
)

func stubAWS(t *testing.T, sign func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error)) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPresign := newS3PresignClient
	origPut := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		newS3PresignClient = origPresign
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return nil
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return nil
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return sign(in)
	}
}

func TestUploadURLs_OrderAndKeys(t *testing.T) {
	var keys []string
	stubAWS(t, func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		require.Equal(t, "survey-imagery", *in.Bucket)
		keys = append(keys, *in.Key)
		return &v4.PresignedHTTPRequest{URL: "https://signed.test/" + *in.Key}, nil
	})

	issuer := NewIssuer(Config{Bucket: "survey-imagery", Region: "us-east-1"})

	urls, err := issuer.UploadURLs(context.Background(), api.UploadURLRequest{
		Expiry:     5,
		ProjectID:  "p1",
		TaskID:     "t1",
		ImageNames: []string{"b.jpg", "a.jpg"},
	})
	require.NoError(t, err)

	// Keys follow the backend's layout and come back in request order.
	require.Equal(t, []string{
		"projects/p1/tasks/t1/b.jpg",
		"projects/p1/tasks/t1/a.jpg",
	}, keys)
	require.Equal(t, []string{
		"https://signed.test/projects/p1/tasks/t1/b.jpg",
		"https://signed.test/projects/p1/tasks/t1/a.jpg",
	}, urls)
}

func TestUploadURLs_SignFailure(t *testing.T) {
	stubAWS(t, func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("no such bucket")
	})

	issuer := NewIssuer(Config{Bucket: "missing"})

	_, err := issuer.UploadURLs(context.Background(), api.UploadURLRequest{
		ImageNames: []string{"a.jpg"},
	})
	require.ErrorIs(t, err, api.ErrAuthorization)
}

func TestUploadURLs_ConfigFailure(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	issuer := NewIssuer(Config{Bucket: "survey-imagery"})

	_, err := issuer.UploadURLs(context.Background(), api.UploadURLRequest{ImageNames: []string{"a.jpg"}})
	require.ErrorIs(t, err, api.ErrAuthorization)
}
