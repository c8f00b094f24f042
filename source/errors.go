package source

import "errors"

var (
	// ErrUnknownSource is returned when a config names a source type
	// with no registered builder.
	ErrUnknownSource = errors.New("unknown source type")

	// ErrNoPatterns is returned when a files source is built without
	// any file patterns.
	ErrNoPatterns = errors.New("files source requires at least one pattern")

	// ErrConnStringRequired is returned when a database source has
	// neither a connection string nor an injected provider.
	ErrConnStringRequired = errors.New("database source requires a connection string")

	// ErrDatasetRequired is returned when a database source does not
	// name the dataset to load.
	ErrDatasetRequired = errors.New("database source requires a dataset name")

	// ErrQueryRequired is returned when an api source has no search
	// query.
	ErrQueryRequired = errors.New("api source requires a search query")

	// ErrClientRequired is returned when an api source is built without
	// a LegiScan client.
	ErrClientRequired = errors.New("api source requires a legiscan client")
)
