package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/minsketch/blobstore"
	"github.com/hupe1980/minsketch/blobstore/minio"
	"github.com/hupe1980/minsketch/blobstore/s3"
)

func openStore(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Type {
	case "", "local":
		return blobstore.NewLocalStore(cfg.Path), nil
	case "s3":
		var loadFns []func(*config.LoadOptions) error
		if cfg.Region != "" {
			loadFns = append(loadFns, config.WithRegion(cfg.Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadFns...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		store := s3.NewStore(awss3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix)
		if cfg.CommitTable == "" {
			return store, nil
		}
		baseURI := fmt.Sprintf("s3://%s/%s", cfg.Bucket, cfg.Prefix)
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.CommitTable, baseURI), nil
	case "minio":
		return minio.Dial(ctx, minio.Endpoint{
			Address:   cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
		}, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
