// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Settings overrides parts of the default AWS config chain. Zero values
// inherit the runner's setup (AWS_PROFILE, shared config, env, IMDS, and the
// web identity token written by an OIDC role exchange).
type Settings struct {
	Profile string
	Region  string
	// Endpoint points the client at an S3-compatible service.
	Endpoint string
	// MaxAttempts bounds retries. Zero keeps the SDK default.
	MaxAttempts int
}

// LoadConfig loads AWS SDK v2 config with s applied.
func LoadConfig(ctx context.Context, s Settings) (awsv2.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if s.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(s.Profile))
	}
	if s.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s.Region))
	}
	if s.MaxAttempts > 0 {
		loadOpts = append(loadOpts, config.WithRetryer(func() awsv2.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), s.MaxAttempts)
		}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return awsv2.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewS3 returns an S3 client for s.
func NewS3(ctx context.Context, s Settings) (*s3v2.Client, error) {
	cfg, err := LoadConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	return s3v2.NewFromConfig(cfg, endpointOption(s.Endpoint)), nil
}

// endpointOption switches the client to endpoint with path-style addressing.
// An empty endpoint leaves the client on AWS.
func endpointOption(endpoint string) func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = awsv2.String(endpoint)
		o.UsePathStyle = true
	}
}
