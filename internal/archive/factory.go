package archive

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"flashdeck/internal/awsutil"
	"flashdeck/internal/config"
)

// NewVaultFromConfig creates a Vault implementation based on the archive config type.
func NewVaultFromConfig(ctx context.Context, cfg config.ArchiveConfig, creds config.AWSConfig) (Vault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		v, err := NewFileSystemVault(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 archive requires s3_bucket to be set")
		}
		awsCfg, err := awsutil.LoadConfig(ctx, creds, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
				o.UsePathStyle = true
			}
		})
		return NewS3Vault(client, cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
