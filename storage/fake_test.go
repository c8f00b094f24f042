package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/poiesic/billscan/core"
)

// fakeProvider is an in-memory Provider used to test the factory and the
// dual-write wrapper without touching a real backend.
type fakeProvider struct {
	raw      map[string]json.RawMessage
	filtered map[string]*core.FilterResults
	relevant map[string]core.ResultsPayload
	notRel   map[string]core.ResultsPayload
	bills    map[int64]json.RawMessage
	texts    map[int64]string

	failWrites bool
	closed     bool
	writeOps   []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		raw:      make(map[string]json.RawMessage),
		filtered: make(map[string]*core.FilterResults),
		relevant: make(map[string]core.ResultsPayload),
		notRel:   make(map[string]core.ResultsPayload),
		bills:    make(map[int64]json.RawMessage),
		texts:    make(map[int64]string),
	}
}

func (f *fakeProvider) write(op string) error {
	f.writeOps = append(f.writeOps, op)
	if f.failWrites {
		return errors.New("write refused")
	}
	return nil
}

func (f *fakeProvider) SaveRawData(_ context.Context, name string, data json.RawMessage) error {
	if err := f.write("raw:" + name); err != nil {
		return err
	}
	f.raw[RawName(name)] = data
	return nil
}

func (f *fakeProvider) LoadRawData(_ context.Context, name string) (json.RawMessage, error) {
	data, ok := f.raw[RawName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: raw data %s", ErrNotFound, name)
	}
	return data, nil
}

func (f *fakeProvider) SaveFilteredResults(_ context.Context, runID string, results *core.FilterResults) error {
	if err := f.write("filtered:" + runID); err != nil {
		return err
	}
	f.filtered[FilterResultsName(runID)] = results
	return nil
}

func (f *fakeProvider) LoadFilteredResults(_ context.Context, runID string) (json.RawMessage, error) {
	results, ok := f.filtered[FilterResultsName(runID)]
	if !ok {
		return nil, fmt.Errorf("%w: filter results %s", ErrNotFound, runID)
	}
	return json.Marshal(results)
}

func (f *fakeProvider) SaveAnalysisResults(_ context.Context, runID string, relevant, notRelevant core.ResultsPayload) error {
	if err := f.write("analysis:" + runID); err != nil {
		return err
	}
	prefix := AnalysisResultsPrefix(runID)
	f.relevant[prefix] = relevant
	f.notRel[prefix] = notRelevant
	return nil
}

func (f *fakeProvider) LoadAnalysisResults(_ context.Context, runID string) (core.ResultsPayload, core.ResultsPayload, error) {
	prefix := AnalysisResultsPrefix(runID)
	relevant, okR := f.relevant[prefix]
	notRelevant, okN := f.notRel[prefix]
	if !okR && !okN {
		return core.ResultsPayload{}, core.ResultsPayload{}, fmt.Errorf("%w: analysis results %s", ErrNotFound, runID)
	}
	return relevant, notRelevant, nil
}

func (f *fakeProvider) GetBillFromCache(_ context.Context, billID int64) (json.RawMessage, error) {
	data, ok := f.bills[billID]
	if !ok {
		return nil, fmt.Errorf("%w: bill %d", ErrNotFound, billID)
	}
	return data, nil
}

func (f *fakeProvider) SaveBillToCache(_ context.Context, billID int64, data json.RawMessage) error {
	if err := f.write(fmt.Sprintf("bill:%d", billID)); err != nil {
		return err
	}
	f.bills[billID] = data
	return nil
}

func (f *fakeProvider) GetBillTextFromCache(_ context.Context, docID int64) (string, error) {
	text, ok := f.texts[docID]
	if !ok {
		return "", fmt.Errorf("%w: bill text %d", ErrNotFound, docID)
	}
	return text, nil
}

func (f *fakeProvider) SaveBillTextToCache(_ context.Context, docID int64, text string) error {
	if err := f.write(fmt.Sprintf("text:%d", docID)); err != nil {
		return err
	}
	f.texts[docID] = text
	return nil
}

func (f *fakeProvider) ListRawFiles(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.raw))
	for name := range f.raw {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeProvider) ListFilteredResults(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.filtered))
	for name := range f.filtered {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeProvider) BillExistsInRaw(ctx context.Context, billNumber, name string) (bool, error) {
	raw, err := f.LoadRawData(ctx, name)
	if err != nil {
		return false, nil
	}
	found, err := core.FindBillByNumber(raw, billNumber)
	if err != nil {
		return false, nil
	}
	return found != nil, nil
}

func (f *fakeProvider) GetBillByNumber(ctx context.Context, billNumber, name string) (json.RawMessage, error) {
	raw, err := f.LoadRawData(ctx, name)
	if err != nil {
		return nil, err
	}
	found, err := core.FindBillByNumber(raw, billNumber)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: bill %s", ErrNotFound, billNumber)
	}
	return found, nil
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}
