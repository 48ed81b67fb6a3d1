package main

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/hupe1980/studyset/blobstore"
	"github.com/hupe1980/studyset/blobstore/minio"
	"github.com/hupe1980/studyset/blobstore/s3"
	"github.com/hupe1980/studyset/catalog"
	"github.com/hupe1980/studyset/internal/config"
)

// dialStore opens the configured blob store, wrapped in a block cache for
// remote backends when STUDYSET_CACHE_BYTES is set.
func (a *app) dialStore(ctx context.Context) (blobstore.BlobStore, error) {
	store, err := a.dialBackend(ctx)
	if err != nil || a.cfg.CacheBytes == 0 || a.cfg.Backend == config.BackendLocal {
		return store, err
	}
	return blobstore.NewCachingStore(store, a.cfg.CacheBytes,
		blobstore.WithCacheFilter(func(name string) bool { return name != catalog.CurrentName }),
	), nil
}

func (a *app) dialBackend(ctx context.Context) (blobstore.BlobStore, error) {
	cfg := a.cfg
	switch cfg.Backend {
	case config.BackendLocal:
		return blobstore.NewLocalStore(cfg.LocalRoot), nil

	case config.BackendMinIO:
		return minio.Dial(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Secure, cfg.Bucket, cfg.Prefix)

	case config.BackendS3:
		var opts []s3.Option
		if cfg.Prefix != "" {
			opts = append(opts, s3.WithPrefix(cfg.Prefix))
		}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		store, err := s3.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		if cfg.DDBTable == "" {
			return store, nil
		}

		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		baseURI := "s3://" + cfg.Bucket + "/" + strings.Trim(cfg.Prefix, "/")
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DDBTable, baseURI), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
