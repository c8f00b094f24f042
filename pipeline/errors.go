package pipeline

import "errors"

var (
	// ErrProviderRequired is returned when a pass is built without a model provider.
	ErrProviderRequired = errors.New("ai provider required")

	// ErrStorageRequired is returned when a pass is built without a storage provider.
	ErrStorageRequired = errors.New("storage provider required")

	// ErrNoBills is returned when the input document contains no bills to process.
	ErrNoBills = errors.New("no bills to process")
)

// InvalidResponseShapeError reports a filter response without the required
// results array. The batch that produced it is skipped; the run continues.
type InvalidResponseShapeError struct {
	Detail string
}

func (e *InvalidResponseShapeError) Error() string {
	return "invalid response structure: " + e.Detail
}
