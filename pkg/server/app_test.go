package server

import (
	"context"
	"errors"
	"sync"
	"testing"

	pkgkafka "AgriIntel/pkg/kafka"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type fakeHTTP struct {
	r        *recorder
	startErr error
}

func (f *fakeHTTP) Start() error {
	f.r.add("http.start")
	return f.startErr
}

func (f *fakeHTTP) Stop(context.Context) error {
	f.r.add("http.stop")
	return nil
}

type fakeConsumer struct {
	r       *recorder
	handler pkgkafka.MessageHandler
}

func (f *fakeConsumer) RegisterHandler(h pkgkafka.MessageHandler) { f.handler = h }

func (f *fakeConsumer) Start() error {
	f.r.add("consumer.start")
	return nil
}

func (f *fakeConsumer) Stop(context.Context) error {
	f.r.add("consumer.stop")
	return nil
}

type topicHandler struct{}

func (topicHandler) Topic() string                        { return "prices" }
func (topicHandler) Handle(context.Context, []byte) error { return nil }

func TestRunContextLifecycle(t *testing.T) {
	r := &recorder{}
	fc := &fakeConsumer{r: r}
	app := New(nil, &fakeHTTP{r: r}, fc, topicHandler{}, 0)
	app.OnShutdown("first", func() error {
		r.add("close.first")
		return nil
	})
	app.OnShutdown("second", func() error {
		r.add("close.second")
		return errors.New("ignored")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.RunContext(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fc.handler == nil || fc.handler.Topic() != "prices" {
		t.Fatalf("ingest handler not registered")
	}
	want := []string{"consumer.start", "http.start", "http.stop", "consumer.stop", "close.second", "close.first"}
	if len(r.events) != len(want) {
		t.Fatalf("events %v", r.events)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Fatalf("event %d: got %s want %s (all %v)", i, r.events[i], want[i], r.events)
		}
	}
}

func TestRunContextWithoutConsumer(t *testing.T) {
	r := &recorder{}
	app := New(nil, &fakeHTTP{r: r}, nil, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.RunContext(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(r.events) != 2 || r.events[0] != "http.start" || r.events[1] != "http.stop" {
		t.Fatalf("events %v", r.events)
	}
}

func TestRunContextHTTPStartFailure(t *testing.T) {
	r := &recorder{}
	boom := errors.New("bind failed")
	closed := false
	app := New(nil, &fakeHTTP{r: r, startErr: boom}, nil, nil, 0)
	app.OnShutdown("store", func() error {
		closed = true
		return nil
	})
	if err := app.RunContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if !closed {
		t.Fatalf("closers should run after a failed start")
	}
}
