package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	require.NoError(t, err)
	return log
}

func playersXML(fideids ...int) []byte {
	doc := "<playerslist>"
	for _, id := range fideids {
		doc += fmt.Sprintf("<player><fideid>%d</fideid><name>P%d</name><rating>2000</rating></player>", id, id)
	}
	doc += "</playerslist>"
	return []byte(doc)
}

// fakeFetcher serves a canned document per period key and errors on
// anything else.
type fakeFetcher struct {
	docs  map[string][]byte
	calls []time.Time
}

func (f *fakeFetcher) Fetch(ctx context.Context, period *time.Time) ([]byte, error) {
	f.calls = append(f.calls, *period)
	doc, ok := f.docs[period.Format("2006-01")]
	if !ok {
		return nil, errors.New("archive not found")
	}
	return doc, nil
}

type fakeHistoryStore struct {
	upserts   map[string]int
	failOn    string
	failAfter int // fail once this many batches have committed, 0 means never
	batches   int
}

func (s *fakeHistoryStore) UpsertHistory(ctx context.Context, period time.Time, records []writer.PlayerRecord) (int, error) {
	key := period.Format("2006-01")
	if key == s.failOn {
		return 0, errors.New("write failed")
	}
	if s.failAfter > 0 && s.batches >= s.failAfter {
		return 0, errors.New("write failed")
	}
	s.batches++
	if s.upserts == nil {
		s.upserts = make(map[string]int)
	}
	s.upserts[key] += len(records)
	return len(records), nil
}

func TestRunLoadsEachPeriod(t *testing.T) {
	now := time.Now().UTC()
	this := now.Format("2006-01")
	last := now.AddDate(0, 0, -now.Day()).Format("2006-01")

	fetcher := &fakeFetcher{docs: map[string][]byte{
		this: playersXML(1, 2, 3),
		last: playersXML(1, 2),
	}}
	store := &fakeHistoryStore{}

	svc := NewService(testLogger(t), fetcher, store, 2)
	res, err := svc.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalPeriods)
	assert.Equal(t, 5, res.TotalRecords)
	assert.Len(t, res.Periods, 2)
	assert.Equal(t, 3, store.upserts[this])
	assert.Equal(t, 2, store.upserts[last])
}

func TestRunReportsAttemptedPeriodsDespiteFailures(t *testing.T) {
	now := time.Now().UTC()
	this := now.Format("2006-01")

	// only the current month's archive exists
	fetcher := &fakeFetcher{docs: map[string][]byte{
		this: playersXML(7),
	}}
	store := &fakeHistoryStore{}

	svc := NewService(testLogger(t), fetcher, store, 0)
	res, err := svc.Run(context.Background(), 3)
	require.NoError(t, err)

	// every enumerated period counts as attempted, failed or not
	assert.Len(t, fetcher.calls, 3)
	assert.Equal(t, 3, res.TotalPeriods)
	assert.Equal(t, fetcher.calls, res.Periods)
	assert.Equal(t, 1, res.TotalRecords)
}

func TestRunSkipsFailedWrites(t *testing.T) {
	now := time.Now().UTC()
	this := now.Format("2006-01")
	last := now.AddDate(0, 0, -now.Day()).Format("2006-01")

	fetcher := &fakeFetcher{docs: map[string][]byte{
		this: playersXML(1),
		last: playersXML(2),
	}}
	store := &fakeHistoryStore{failOn: this}

	svc := NewService(testLogger(t), fetcher, store, 0)
	res, err := svc.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalPeriods)
	assert.Len(t, res.Periods, 2)
	assert.Equal(t, 1, res.TotalRecords)
	assert.Equal(t, 1, store.upserts[last])
}

func TestRunCountsBatchesCommittedBeforeAFailure(t *testing.T) {
	now := time.Now().UTC()
	this := now.Format("2006-01")

	fetcher := &fakeFetcher{docs: map[string][]byte{
		this: playersXML(1, 2, 3, 4, 5),
	}}
	store := &fakeHistoryStore{failAfter: 2}

	svc := NewService(testLogger(t), fetcher, store, 2)
	res, err := svc.Run(context.Background(), 1)
	require.NoError(t, err)

	// two batches of two committed before the third failed
	assert.Equal(t, 1, res.TotalPeriods)
	assert.Equal(t, 4, res.TotalRecords)
	assert.Equal(t, 4, store.upserts[this])
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	svc := NewService(testLogger(t), fetcher, &fakeHistoryStore{}, 0)

	_, err := svc.Run(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
}
