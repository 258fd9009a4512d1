package fetcher

import (
	"context"

	"github.com/rohmanhakim/board-scraper/pkg/failure"
	"github.com/rohmanhakim/board-scraper/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
