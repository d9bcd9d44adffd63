package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/models"
	"github.com/StackNinja0109/pdf2csv/internal/pdf/pdftest"
)

// rows builds n records whose "model" value is prefix-1..prefix-n.
func rows(fields []string, prefix string, n int) []extract.Record {
	elements := make([]any, n)
	for i := range elements {
		elements[i] = map[string]any{"model": fmt.Sprintf("%s-%d", prefix, i+1), "qty": strconv.Itoa(i + 1)}
	}
	return extract.Project(elements, fields)
}

// sequenceExtractor returns the configured record counts in call order.
type sequenceExtractor struct {
	mu     sync.Mutex
	counts []int
	calls  int
}

func (s *sequenceExtractor) Extract(_ context.Context, _ []byte, fields []string) []extract.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	if s.calls < len(s.counts) {
		n = s.counts[s.calls]
	}
	s.calls++
	return rows(fields, fmt.Sprintf("p%d", s.calls), n)
}

type fakeLedger struct {
	mu       sync.Mutex
	started  map[string]models.ExtractionJob
	outcomes map[string]JobOutcome
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{started: map[string]models.ExtractionJob{}, outcomes: map[string]JobOutcome{}}
}

func (l *fakeLedger) Start(_ context.Context, jobID string, job models.ExtractionJob) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started[jobID] = job
	return l.err
}

func (l *fakeLedger) Finish(_ context.Context, jobID string, outcome JobOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes[jobID] = outcome
	return l.err
}

type fakeArchive struct {
	saved []models.ArchivedResult
}

func (a *fakeArchive) Save(_ context.Context, result models.ArchivedResult) error {
	a.saved = append(a.saved, result)
	return nil
}

func TestProcessKeepsOnlyPagesWithMoreThanOneRecord(t *testing.T) {
	ex := &sequenceExtractor{counts: []int{3, 1, 0}}
	p := NewProcessor(ex, ProcessorConfig{})

	result, err := p.Process(context.Background(), ProcessRequest{
		PDF:     pdftest.Document(3),
		Formats: []string{"model", "qty"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, ex.calls)
	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, 1, result.AcceptedPages)
	require.Len(t, result.Records, 3)
	for i, rec := range result.Records {
		assert.Equal(t, []string{"model", "qty"}, rec.Keys())
		assert.Equal(t, fmt.Sprintf("p1-%d", i+1), rec.Get("model"))
	}
}

// A page with exactly one record is dropped even when that record is real data.
func TestProcessDropsSingleRecordPages(t *testing.T) {
	ex := &sequenceExtractor{counts: []int{1, 1}}
	p := NewProcessor(ex, ProcessorConfig{})

	_, err := p.Process(context.Background(), ProcessRequest{
		PDF:     pdftest.Document(2),
		Formats: []string{"model"},
	})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestProcessValidatesBeforeExtracting(t *testing.T) {
	tests := []struct {
		name string
		req  ProcessRequest
		want error
	}{
		{"missing formats", ProcessRequest{PDF: []byte("%PDF-")}, ErrMissingFormats},
		{"empty field name", ProcessRequest{PDF: []byte("%PDF-"), Formats: []string{"model", ""}}, ErrInvalidFormats},
		{"missing pdf", ProcessRequest{Formats: []string{"model"}}, ErrMissingPDF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &sequenceExtractor{counts: []int{5}}
			_, err := NewProcessor(ex, ProcessorConfig{}).Process(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, ex.calls)
		})
	}
}

type slowExtractor struct{}

// Extract finishes earlier pages last and tags each record with its page.
func (slowExtractor) Extract(_ context.Context, page []byte, fields []string) []extract.Record {
	idx, _ := strconv.Atoi(string(page))
	time.Sleep(time.Duration(10-idx) * 5 * time.Millisecond)
	return rows(fields, "page"+string(page), 2)
}

func TestProcessConcurrentPagesKeepPageOrder(t *testing.T) {
	split := func([]byte) ([][]byte, error) {
		pages := make([][]byte, 8)
		for i := range pages {
			pages[i] = []byte(strconv.Itoa(i))
		}
		return pages, nil
	}
	fields := []string{"model"}

	var sequential, concurrent []string
	for _, c := range []struct {
		limit int
		out   *[]string
	}{{1, &sequential}, {8, &concurrent}} {
		p := NewProcessor(slowExtractor{}, ProcessorConfig{PageConcurrency: c.limit}, withSplitter(split))
		result, err := p.Process(context.Background(), ProcessRequest{PDF: []byte("x"), Formats: fields})
		require.NoError(t, err)
		for _, r := range result.Records {
			*c.out = append(*c.out, r.Get("model"))
		}
	}

	require.Len(t, concurrent, 16)
	assert.Equal(t, sequential, concurrent)
	assert.Equal(t, "page0-1", concurrent[0])
	assert.Equal(t, "page7-2", concurrent[15])
}

type deadlineExtractor struct {
	sawDeadline bool
}

func (d *deadlineExtractor) Extract(ctx context.Context, _ []byte, fields []string) []extract.Record {
	_, d.sawDeadline = ctx.Deadline()
	return rows(fields, "x", 2)
}

func TestProcessAppliesPageTimeout(t *testing.T) {
	split := func([]byte) ([][]byte, error) { return [][]byte{[]byte("0")}, nil }
	ex := &deadlineExtractor{}
	p := NewProcessor(ex, ProcessorConfig{PageTimeout: time.Minute}, withSplitter(split))

	_, err := p.Process(context.Background(), ProcessRequest{PDF: []byte("x"), Formats: []string{"model"}})
	require.NoError(t, err)
	assert.True(t, ex.sawDeadline)
}

func TestProcessReportsProgress(t *testing.T) {
	ex := &sequenceExtractor{counts: []int{2, 0, 4}}
	p := NewProcessor(ex, ProcessorConfig{})

	got := map[int]int{}
	_, err := p.Process(context.Background(), ProcessRequest{
		PDF:      pdftest.Document(3),
		Formats:  []string{"model"},
		Progress: func(page, records int) { got[page] = records },
	})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2, 2: 0, 3: 4}, got)
}

func TestProcessRecordsJobAndArchive(t *testing.T) {
	ledger := newFakeLedger()
	archive := &fakeArchive{}
	ex := &sequenceExtractor{counts: []int{2, 3}}
	p := NewProcessor(ex, ProcessorConfig{Model: "fake-model"}, WithLedger(ledger), WithArchive(archive))

	doc := pdftest.Document(2)
	result, err := p.Process(context.Background(), ProcessRequest{PDF: doc, Filename: "table.pdf", Formats: []string{"model"}})
	require.NoError(t, err)

	job := ledger.started[result.JobID]
	assert.Equal(t, models.StatusProcessing, job.Status)
	assert.Equal(t, "table.pdf", job.OriginalFilename)
	assert.Equal(t, fileHash(doc), job.FileHash)
	assert.Equal(t, "fake-model", job.Model)

	assert.Equal(t, JobOutcome{
		Status:        models.StatusCompleted,
		PageCount:     2,
		AcceptedPages: 2,
		RecordCount:   5,
	}, ledger.outcomes[result.JobID])

	require.Len(t, archive.saved, 1)
	assert.Equal(t, result.JobID, archive.saved[0].JobID)
	assert.Equal(t, []string{"model"}, archive.saved[0].Formats)
}

func TestProcessEmptyJobIsNotArchived(t *testing.T) {
	ledger := newFakeLedger()
	archive := &fakeArchive{}
	p := NewProcessor(&sequenceExtractor{}, ProcessorConfig{}, WithLedger(ledger), WithArchive(archive))

	_, err := p.Process(context.Background(), ProcessRequest{PDF: pdftest.Document(1), Formats: []string{"model"}})
	require.ErrorIs(t, err, ErrNoData)

	require.Len(t, ledger.outcomes, 1)
	for _, o := range ledger.outcomes {
		assert.Equal(t, models.StatusEmpty, o.Status)
	}
	assert.Empty(t, archive.saved)
}

func TestProcessLedgerFailureDoesNotFailRequest(t *testing.T) {
	ledger := newFakeLedger()
	ledger.err = errors.New("firestore unavailable")
	p := NewProcessor(&sequenceExtractor{counts: []int{2}}, ProcessorConfig{}, WithLedger(ledger))

	result, err := p.Process(context.Background(), ProcessRequest{PDF: pdftest.Document(1), Formats: []string{"model"}})
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
}

func TestProcessSplitFailureMarksJobFailed(t *testing.T) {
	ledger := newFakeLedger()
	p := NewProcessor(&sequenceExtractor{}, ProcessorConfig{}, WithLedger(ledger))

	_, err := p.Process(context.Background(), ProcessRequest{PDF: []byte("not a pdf"), Formats: []string{"model"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "failed to split PDF")

	require.Len(t, ledger.outcomes, 1)
	for _, o := range ledger.outcomes {
		assert.Equal(t, models.StatusFailed, o.Status)
		assert.Contains(t, o.ErrorDetails, "failed to split PDF")
	}
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(&sequenceExtractor{counts: []int{2}}, ProcessorConfig{})
	_, err := p.Process(ctx, ProcessRequest{PDF: pdftest.Document(1), Formats: []string{"model"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcomeUpdates(t *testing.T) {
	failed := outcomeUpdates(JobOutcome{Status: models.StatusFailed, ErrorDetails: "boom"})
	require.Len(t, failed, 2)
	assert.Equal(t, "errorDetails", failed[1].Path)

	done := outcomeUpdates(JobOutcome{Status: models.StatusCompleted, PageCount: 3, AcceptedPages: 1, RecordCount: 4})
	paths := make([]string, len(done))
	for i, u := range done {
		paths[i] = u.Path
	}
	assert.Equal(t, []string{"status", "pageCount", "acceptedPages", "recordCount"}, paths)
}
