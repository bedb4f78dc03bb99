// Package presign issues pre-signed upload URLs locally, for deployments
// where the operator owns the storage bucket and no tasking backend sits in
// between. It satisfies the same issuer contract as the API client, so the
// rest of the pipeline cannot tell the two apart.
package presign

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aerialops/uplink/internal/api"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Config holds the bucket the issuer signs for. Endpoint is optional and
// supports S3-compatible stores (MinIO and friends).
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

func (i *Issuer) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(i.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			i.cfg.AccessKey,
			i.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if i.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(i.cfg.Endpoint)
		}
	})

	return newS3PresignClient(client), nil
}

// objectKey mirrors the backend's storage layout so classification finds
// direct uploads in the same place as proxied ones.
func objectKey(projectID, taskID, name string) string {
	return fmt.Sprintf("projects/%s/tasks/%s/%s", projectID, taskID, name)
}

// UploadURLs issues one pre-signed PUT URL per image name, order-correlated
// with the input. Failures wrap api.ErrAuthorization, matching the remote
// issuer's failure semantics: nothing uploads on error.
func (i *Issuer) UploadURLs(ctx context.Context, req api.UploadURLRequest) ([]string, error) {
	pc, err := i.presignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrAuthorization, err)
	}

	expiry := time.Duration(req.Expiry) * time.Minute
	bucket := i.cfg.Bucket

	urls := make([]string, 0, len(req.ImageNames))
	for _, name := range req.ImageNames {
		key := objectKey(req.ProjectID, req.TaskID, name)
		signed, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
			Bucket: &bucket,
			Key:    &key,
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return nil, fmt.Errorf("%w: presigning %s: %v", api.ErrAuthorization, name, err)
		}
		urls = append(urls, signed.URL)
	}

	return urls, nil
}
