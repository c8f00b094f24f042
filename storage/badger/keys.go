package badger

import (
	"strings"

	"github.com/poiesic/billscan/storage"
)

// Key prefixes mirror the file backend's directory layout, so a key reads
// like the path the same object would have on disk. The shared naming
// rules in the storage package then resolve identically on both backends.
const (
	rawPrefix      = "raw/"
	filteredPrefix = "filtered/"
	analyzedPrefix = "analyzed/"
	cachePrefix    = "cache/"

	jsonExt = ".json"
)

// makeRawKey generates the key for a raw dataset.
func makeRawKey(name string) []byte {
	return []byte(rawPrefix + storage.RawName(name) + jsonExt)
}

// makeFilteredKey generates the key for a stored filter-results object.
// The object name already carries its extension.
func makeFilteredKey(objectName string) []byte {
	return []byte(filteredPrefix + objectName)
}

// makeAnalyzedKey generates the key for one analysis bucket.
func makeAnalyzedKey(runID, bucket string) []byte {
	return []byte(analyzedPrefix + storage.AnalysisResultsPrefix(runID) + "_" + bucket + jsonExt)
}

// makeBillCacheKey generates the key for a cached upstream bill payload.
func makeBillCacheKey(billID int64) []byte {
	return []byte(cachePrefix + storage.BillCacheName(billID))
}

// makeBillTextCacheKey generates the key for cached extracted bill text.
func makeBillTextCacheKey(docID int64) []byte {
	return []byte(cachePrefix + storage.BillTextCacheName(docID))
}

// stemFromKey recovers the object stem from a key by stripping the prefix
// and the ".json" extension.
func stemFromKey(key []byte, prefix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(string(key), prefix), jsonExt)
}
