package source

import (
	"context"
	"iter"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.uber.org/zap"
)

// ContainerName is the blob container holding the census packages.
const ContainerName = "australian-census-data"

// blobPager walks one listing page at a time.
type blobPager interface {
	More() bool
	NextPage(ctx context.Context) ([]string, error)
}

// BlobLister enumerates the remote census inventory. Each lister owns its
// own client; callers construct one per credential and drop it when done.
//
// Listing returns the whole container. Selecting the blob that matches an
// artifact key and downloading it is not implemented, so remote listings are
// not fed into normalization.
type BlobLister struct {
	container string
	newPager  func() blobPager
}

// NewBlobLister builds a lister from an Azure storage connection string.
// A malformed credential fails here with a ConnectionError.
func NewBlobLister(connStr string) (*BlobLister, error) {
	client, err := azblob.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	return &BlobLister{
		container: ContainerName,
		newPager: func() blobPager {
			return &azurePager{p: client.NewListBlobsFlatPager(ContainerName, nil)}
		},
	}, nil
}

// Container returns the container being listed.
func (l *BlobLister) Container() string {
	return l.container
}

// List yields blob names lazily in the order the store returns them. A
// transport failure is yielded once as a ConnectionError and ends the
// sequence. An empty container yields nothing.
func (l *BlobLister) List(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		pager := l.newPager()
		for pager.More() {
			names, err := pager.NextPage(ctx)
			if err != nil {
				yield("", &ConnectionError{Err: err})
				return
			}
			for _, name := range names {
				if !yield(name, nil) {
					return
				}
			}
		}
	}
}

// Names drains List into a slice.
func (l *BlobLister) Names(ctx context.Context) ([]string, error) {
	var names []string
	for name, err := range l.List(ctx) {
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	zap.L().Debug("source: listed blobs",
		zap.String("container", l.container),
		zap.Int("blobs", len(names)),
	)
	return names, nil
}

type azurePager struct {
	p *runtime.Pager[azblob.ListBlobsFlatResponse]
}

func (a *azurePager) More() bool {
	return a.p.More()
}

func (a *azurePager) NextPage(ctx context.Context) ([]string, error) {
	resp, err := a.p.NextPage(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Segment == nil {
		return nil, nil
	}
	names := make([]string, 0, len(resp.Segment.BlobItems))
	for _, item := range resp.Segment.BlobItems {
		if item != nil && item.Name != nil {
			names = append(names, *item.Name)
		}
	}
	return names, nil
}
