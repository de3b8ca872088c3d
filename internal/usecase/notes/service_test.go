package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/domain/job"
	"github.com/studyvault-app/studyvault/internal/repository/jobstore"
)

const validFragment = `{
	"title": "Operating Systems",
	"tl_dr": "Processes, memory, files.",
	"summary": "An overview of OS fundamentals.",
	"sections": [{"heading": "Paging", "summary": "Fixed-size pages.", "bullets": ["page tables"], "important_quotes": []}],
	"action_items": ["revise paging"],
	"questions": ["What is a TLB?"],
	"flashcards": [{"question": "What is paging?", "answer": "Fixed-size memory mapping."}]
}`

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ []byte, _, _ string) (string, error) {
	return f.text, f.err
}

// scriptedGenerator returns canned responses in order and records prompts.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	systems   []string
	calls     int
}

func (g *scriptedGenerator) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.calls
	g.calls++
	g.systems = append(g.systems, systemPrompt)

	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return validFragment, nil
}

func newTestService(t *testing.T, gen Generator, queueSize int) (*Service, *jobstore.MemoryStore) {
	t.Helper()
	store := jobstore.NewMemoryStore()
	splitter, err := chunk.NewSplitter(100, 0)
	if err != nil {
		t.Fatalf("splitter: %v", err)
	}
	svc := New(store, &fakeExtractor{text: "study material about operating systems"}, splitter, gen, t.TempDir(), queueSize, zap.NewNop())
	return svc, store
}

func waitTerminal(t *testing.T, store jobstore.Store, id string) job.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job did not reach a terminal state")
		default:
		}
		j, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if j.Terminal() {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmit_JobVisibleBeforeProcessing(t *testing.T) {
	svc, store := newTestService(t, &scriptedGenerator{}, 4)
	// Workers never started: the job must still be observable.

	j, err := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != job.StatusProcessing {
		t.Errorf("expected processing before workers run, got %s", got.Status)
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	svc, _ := newTestService(t, &scriptedGenerator{}, 1)

	if _, err := svc.Submit(context.Background(), "a.txt", "text/plain", []byte("x")); err != nil {
		t.Fatalf("first submit should fit the queue: %v", err)
	}
	_, err := svc.Submit(context.Background(), "b.txt", "text/plain", []byte("x"))
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestPipeline_HappyPath(t *testing.T) {
	svc, store := newTestService(t, &scriptedGenerator{}, 4)
	svc.Start(1)
	defer svc.Stop()

	j, err := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := waitTerminal(t, store, j.ID)
	if done.Status != job.StatusDone {
		t.Fatalf("expected done, got %s (%s)", done.Status, done.Error)
	}

	doc, err := svc.Result(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Operating Systems" {
		t.Errorf("unexpected title: %q", doc.Title)
	}
	if len(doc.Flashcards) != 1 {
		t.Errorf("expected 1 flashcard, got %d", len(doc.Flashcards))
	}
}

func TestPipeline_MalformedThenValidRetries(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"sorry, here are your notes!", validFragment}}
	svc, store := newTestService(t, gen, 4)
	svc.Start(1)
	defer svc.Stop()

	j, _ := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	done := waitTerminal(t, store, j.ID)

	if done.Status != job.StatusDone {
		t.Fatalf("expected done after retry, got %s (%s)", done.Status, done.Error)
	}
	if gen.calls != 2 {
		t.Errorf("expected exactly 2 generate calls, got %d", gen.calls)
	}
	if !strings.Contains(gen.systems[1], "ONLY a raw JSON") {
		t.Error("retry must use the hardened prompt")
	}
}

func TestPipeline_AllChunksFailJobErrors(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"garbage", "still garbage"}}
	svc, store := newTestService(t, gen, 4)
	svc.Start(1)
	defer svc.Stop()

	j, _ := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	done := waitTerminal(t, store, j.ID)

	if done.Status != job.StatusError {
		t.Fatalf("expected error, got %s", done.Status)
	}
	if !strings.Contains(done.Error, "chunks failed") {
		t.Errorf("unexpected error message: %q", done.Error)
	}
	if gen.calls != 2 {
		t.Errorf("expected 1 attempt + 1 retry, got %d calls", gen.calls)
	}
}

func TestPipeline_ExtractionFailureFailsJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	splitter, _ := chunk.NewSplitter(100, 0)
	svc := New(store, &fakeExtractor{err: errors.New("corrupt file")}, splitter, &scriptedGenerator{}, t.TempDir(), 4, zap.NewNop())
	svc.Start(1)
	defer svc.Stop()

	j, _ := svc.Submit(context.Background(), "broken.pdf", "application/pdf", []byte("x"))
	done := waitTerminal(t, store, j.ID)

	if done.Status != job.StatusError {
		t.Fatalf("expected error, got %s", done.Status)
	}
	if !strings.Contains(done.Error, "corrupt file") {
		t.Errorf("unexpected error message: %q", done.Error)
	}
}

func TestResult_NotReady(t *testing.T) {
	svc, _ := newTestService(t, &scriptedGenerator{}, 4)

	j, _ := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	if _, err := svc.Result(context.Background(), j.ID); !errors.Is(err, domain.ErrResultNotReady) {
		t.Fatalf("expected ErrResultNotReady, got %v", err)
	}
}

func TestResult_UnknownJob(t *testing.T) {
	svc, _ := newTestService(t, &scriptedGenerator{}, 4)

	if _, err := svc.Result(context.Background(), "ghost"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := svc.Status(context.Background(), "ghost"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestPipeline_PanicBecomesJobError(t *testing.T) {
	store := jobstore.NewMemoryStore()
	splitter, _ := chunk.NewSplitter(100, 0)
	svc := New(store, panickingExtractor{}, splitter, &scriptedGenerator{}, t.TempDir(), 4, zap.NewNop())
	svc.Start(1)
	defer svc.Stop()

	j, _ := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	done := waitTerminal(t, store, j.ID)

	if done.Status != job.StatusError {
		t.Fatalf("expected error after panic, got %s", done.Status)
	}
	if !strings.Contains(done.Error, "internal error") {
		t.Errorf("unexpected error message: %q", done.Error)
	}

	// The worker must survive and process the next job.
	svc.extractor = &fakeExtractor{text: "more material"}
	j2, err := svc.Submit(context.Background(), "os.txt", "text/plain", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done2 := waitTerminal(t, store, j2.ID); done2.Status != job.StatusDone {
		t.Errorf("worker did not recover: %s (%s)", done2.Status, done2.Error)
	}
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(_ []byte, _, _ string) (string, error) {
	panic("boom")
}
