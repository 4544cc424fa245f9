// Package awsutil builds AWS SDK configuration from flashdeck settings.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"flashdeck/internal/config"
)

// LoadConfig resolves an aws.Config for region. Static keys in creds take
// precedence over the named profile, which takes precedence over the
// default chain.
func LoadConfig(ctx context.Context, creds config.AWSConfig, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	switch {
	case creds.AccessKeyID != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, "")))
	case creds.Profile != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(creds.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	return cfg, nil
}
