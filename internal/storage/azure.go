package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureStore keeps objects in one Azure Blob Storage container.
type AzureStore struct {
	client     *azblob.Client
	accountURL string
	container  string
}

// NewAzure connects to accountURL with the default Azure credential chain.
func NewAzure(accountURL, container string) (*AzureStore, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}

	return &AzureStore{
		client:     client,
		accountURL: strings.TrimSuffix(accountURL, "/"),
		container:  container,
	}, nil
}

// Put uploads body to key with its content type.
func (s *AzureStore) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.UploadStream(ctx, s.container, key, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType:  to.Ptr(contentType),
			BlobCacheControl: to.Ptr("public, max-age=31536000, immutable"),
		},
	})
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	return nil
}

// List returns the blob names that start with prefix.
func (s *AzureStore) List(ctx context.Context, prefix string) ([]string, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})

	keys := []string{}
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

// URL returns the public address of key.
func (s *AzureStore) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.accountURL, s.container, key)
}
