// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package object

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/tier"
)

// Configuration - S3 compatible bucket settings
type Configuration struct {
	Bucket    string `gluamapper:"bucket" json:"bucket"`
	Region    string `gluamapper:"region" json:"region"`
	Endpoint  string `gluamapper:"endpoint" json:"endpoint"`
	PathStyle bool   `gluamapper:"path_style" json:"path_style"`
}

// API - the subset of the S3 client used here
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 - object store tier backed by an S3 compatible service
type S3 struct {
	log    *logger.L
	client API
	bucket string
}

var _ tier.ObjectBackend = (*S3)(nil)

// NewS3 - connect using the default credential chain
func NewS3(ctx context.Context, configuration *Configuration) (*S3, error) {
	if nil == configuration || "" == configuration.Bucket {
		return nil, fault.ErrInvalidConfiguration
	}

	options := []func(*awsconfig.LoadOptions) error{}
	if "" != configuration.Region {
		options = append(options, awsconfig.WithRegion(configuration.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if nil != err {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = configuration.PathStyle
		if "" != configuration.Endpoint {
			endpoint := configuration.Endpoint
			o.EndpointResolver = s3.EndpointResolverFunc(func(region string, _ s3.EndpointResolverOptions) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					SigningRegion:     region,
				}, nil
			})
		}
	})
	return NewS3WithClient(client, configuration.Bucket), nil
}

// NewS3WithClient - object store over an existing client
func NewS3WithClient(client API, bucket string) *S3 {
	return &S3{
		log:    logger.New("object"),
		client: client,
		bucket: bucket,
	}
}

// Put - write an object with its metadata
func (s *S3) Put(ctx context.Context, key string, value []byte, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(value),
		Metadata: metadata,
	})
	if nil != err {
		s.log.Errorf("put: %q  error: %s", key, err)
	}
	return err
}

// Get - read an object and its metadata
func (s *S3) Get(ctx context.Context, key string) ([]byte, map[string]string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if nil != err {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil, fault.ErrObjectNotFound
		}
		s.log.Errorf("get: %q  error: %s", key, err)
		return nil, nil, err
	}
	defer out.Body.Close()

	value, err := io.ReadAll(out.Body)
	if nil != err {
		return nil, nil, err
	}
	return value, out.Metadata, nil
}

// List - all keys beginning with prefix, in key order
func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if nil != err {
			s.log.Errorf("list: %q  error: %s", prefix, err)
			return nil, err
		}
		for _, item := range page.Contents {
			keys = append(keys, aws.ToString(item.Key))
		}
	}
	return keys, nil
}
