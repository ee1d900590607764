package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/flemzord/syncmcp/internal/config"
	"github.com/flemzord/syncmcp/internal/registry"
)

type fakeRecorder struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *fakeRecorder) SetInstanceUp(instance string, up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	r.seen[instance] = up
}

func healthyDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/noauth/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeAll_RecordsAvailability(t *testing.T) {
	t.Parallel()

	up := healthyDaemon(t)
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close() // refused connections from here on

	reg := registry.New(nil, map[string]config.Instance{
		"good": {URL: up.URL, APIKey: "k"},
		"bad":  {URL: down.URL, APIKey: "k"},
	})
	rec := &fakeRecorder{}
	p := New(reg, rec, nil, "*/5 * * * *")
	p.probeAll(context.Background())

	health := p.Health()
	if len(health) != 2 {
		t.Fatalf("health = %v", health)
	}
	// Sorted by name.
	if health[0].Name != "bad" || health[0].Available {
		t.Fatalf("health[0] = %+v", health[0])
	}
	if health[0].Error == "" {
		t.Fatal("unavailable instance must carry an error description")
	}
	if health[1].Name != "good" || !health[1].Available {
		t.Fatalf("health[1] = %+v", health[1])
	}

	if p.AllAvailable() {
		t.Fatal("AllAvailable must be false with one instance down")
	}
	if rec.seen["good"] != true || rec.seen["bad"] != false {
		t.Fatalf("recorder = %v", rec.seen)
	}
}

func TestAllAvailable_TrueBeforeFirstProbe(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil, map[string]config.Instance{})
	p := New(reg, nil, nil, "*/5 * * * *")
	if !p.AllAvailable() {
		t.Fatal("unprobed prober must report available")
	}
	if h := p.Health(); len(h) != 0 {
		t.Fatalf("health = %v", h)
	}
}

func TestProbeAll_Recovery(t *testing.T) {
	t.Parallel()

	srv := healthyDaemon(t)
	reg := registry.New(nil, map[string]config.Instance{
		"nas": {URL: srv.URL, APIKey: "k"},
	})
	p := New(reg, nil, nil, "*/5 * * * *")

	p.probeAll(context.Background())
	if !p.AllAvailable() {
		t.Fatal("instance should be up")
	}

	srv.CloseClientConnections()
	srv.Close()
	p.probeAll(context.Background())
	if p.AllAvailable() {
		t.Fatal("instance should be down after server close")
	}

	h := p.Health()
	if len(h) != 1 || h[0].Available {
		t.Fatalf("health = %v", h)
	}
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil, map[string]config.Instance{})
	p := New(reg, nil, nil, "not a schedule")
	if err := p.Start(); err == nil {
		p.Stop()
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	srv := healthyDaemon(t)
	reg := registry.New(nil, map[string]config.Instance{
		"nas": {URL: srv.URL, APIKey: "k"},
	})
	p := New(reg, nil, nil, "*/5 * * * *")
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.Stop()
}

func TestStop_WaitsForInitialPass(t *testing.T) {
	t.Parallel()

	srv := healthyDaemon(t)
	rec := &fakeRecorder{}
	reg := registry.New(nil, map[string]config.Instance{
		"nas": {URL: srv.URL, APIKey: "k"},
	})
	p := New(reg, rec, nil, "*/5 * * * *")
	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.Stop()

	// Stop blocks until the initial pass releases the running lock, so its
	// results must be visible here without any sleep.
	h := p.Health()
	if len(h) != 1 || h[0].Name != "nas" || !h[0].Available {
		t.Fatalf("health after stop = %v", h)
	}
	if rec.seen["nas"] != true {
		t.Fatalf("recorder = %v", rec.seen)
	}
}
