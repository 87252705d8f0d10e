// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package artifacts persists generated images and hands back locators.
package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Store persists one binary artifact and returns a retrievable URL.
type Store interface {
	Upload(ctx context.Context, object string, data []byte, contentType string) (string, error)

	// AllowedHosts lists the hosts artifact URLs may resolve to. The
	// download proxy refuses anything else.
	AllowedHosts() []string
}

// GCSStore implements Store on a Google Cloud Storage bucket.
type GCSStore struct {
	storageClient *storage.Client
	bucketName    string
}

// NewGCSStore builds a store from ARTIFACT_BUCKET, optionally using a
// service account key at GOOGLE_APPLICATION_CREDENTIALS.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	bucketName := strings.TrimSpace(os.Getenv("ARTIFACT_BUCKET"))
	if bucketName == "" {
		return nil, fmt.Errorf("ARTIFACT_BUCKET environment variable not set")
	}

	var opts []option.ClientOption
	if saKeyPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSStore{
		storageClient: storageClient,
		bucketName:    bucketName,
	}, nil
}

// Upload writes the bytes to the bucket and returns the public URL.
func (s *GCSStore) Upload(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	obj := s.storageClient.Bucket(s.bucketName).Object(object)
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to copy artifact to GCS object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", object, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, object), nil
}

// AllowedHosts implements Store. Both URL forms GCS serves objects
// under are accepted.
func (s *GCSStore) AllowedHosts() []string {
	return []string{
		"storage.googleapis.com",
		s.bucketName + ".storage.googleapis.com",
	}
}
