package govinfo

import (
	"context"
)

// Resolver fetches a granule's metadata summary and, when a download link
// exists, the document body it points to.
type Resolver struct {
	client     *Client
	downloader Downloader
}

// NewResolver wires the API client to a document downloader.
func NewResolver(client *Client, downloader Downloader) *Resolver {
	return &Resolver{client: client, downloader: downloader}
}

// Resolve fetches the granule summary and downloads the best available
// content representation. A summary with no usable download link yields
// Found=false with no error; HTTP failures from either call propagate.
func (r *Resolver) Resolve(ctx context.Context, packageID, granuleID string) (Resolution, error) {
	summary, err := r.client.GranuleSummary(ctx, packageID, granuleID)
	if err != nil {
		return Resolution{}, err
	}

	var link string
	for _, key := range downloadKeys {
		if url := summary.Download[key]; url != "" {
			link = url
			break
		}
	}
	if link == "" {
		return Resolution{Summary: summary}, nil
	}

	body, err := r.downloader.Download(ctx, link)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Body: body, Found: true, Summary: summary}, nil
}
