package vision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
)

type stubProvider struct {
	name       string
	detections []Detection
	err        error
	calls      int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Detect(ctx context.Context, frame string, mode enums.ScanMode) ([]Detection, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.detections, nil
}

func TestGatewayFallsBackToNextProvider(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("upstream 500")}
	secondary := &stubProvider{name: "secondary", detections: []Detection{{Name: "Toned Milk", Confidence: 0.9}}}
	tertiary := &stubProvider{name: "tertiary", detections: []Detection{{Name: "unused", Confidence: 0.95}}}

	gw, err := NewGateway([]Provider{primary, secondary, tertiary}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	detection, err := gw.Detect(context.Background(), "data:image/jpeg;base64,abc", enums.ScanModeProduct)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if detection.Name != "Toned Milk" {
		t.Fatalf("unexpected detection %+v", detection)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected primary and secondary to be tried, got %d/%d", primary.calls, secondary.calls)
	}
	if tertiary.calls != 0 {
		t.Fatal("chain should stop at first success")
	}
}

func TestGatewayAggregatesAllFailures(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("timeout")}
	second := &stubProvider{name: "second", err: errors.New("bad json")}

	gw, err := NewGateway([]Provider{first, second}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	_, err = gw.Detect(context.Background(), "frame", enums.ScanModeProduct)
	if err == nil {
		t.Fatal("expected aggregated failure")
	}

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
		t.Fatalf("expected both provider names in error, got %q", msg)
	}
}

func TestGatewayPicksHighestConfidence(t *testing.T) {
	provider := &stubProvider{name: "multi", detections: []Detection{
		{Name: "low", Confidence: 0.72},
		{Name: "high", Confidence: 0.91},
		{Name: "mid", Confidence: 0.8},
	}}

	gw, err := NewGateway([]Provider{provider}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	detection, err := gw.Detect(context.Background(), "frame", enums.ScanModeProduct)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if detection.Name != "high" {
		t.Fatalf("expected highest confidence entry, got %+v", detection)
	}
}

func TestGatewayTieBreakKeepsFirstSeen(t *testing.T) {
	provider := &stubProvider{name: "tie", detections: []Detection{
		{Name: "first", Confidence: 0.85},
		{Name: "second", Confidence: 0.85},
	}}

	gw, err := NewGateway([]Provider{provider}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	detection, err := gw.Detect(context.Background(), "frame", enums.ScanModeProduct)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if detection.Name != "first" {
		t.Fatalf("tie should keep first seen, got %+v", detection)
	}
}

func TestGatewayRejectsLowConfidenceWithoutFallback(t *testing.T) {
	uncertain := &stubProvider{name: "uncertain", detections: []Detection{{Name: "blur", Confidence: 0.4}}}
	backup := &stubProvider{name: "backup", detections: []Detection{{Name: "clear", Confidence: 0.9}}}

	gw, err := NewGateway([]Provider{uncertain, backup}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	_, err = gw.Detect(context.Background(), "frame", enums.ScanModeProduct)
	if err == nil {
		t.Fatal("expected low confidence rejection")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	if backup.calls != 0 {
		t.Fatal("a readable frame with nothing confident should not hit the next provider")
	}
}

func TestGatewayValidatesInput(t *testing.T) {
	gw, err := NewGateway([]Provider{&stubProvider{name: "ok", detections: []Detection{{Confidence: 0.9}}}}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	if _, err := gw.Detect(context.Background(), "   ", enums.ScanModeProduct); err == nil {
		t.Fatal("expected validation error for blank frame")
	}
	if _, err := gw.Detect(context.Background(), "frame", enums.ScanMode("bogus")); err == nil {
		t.Fatal("expected validation error for bad mode")
	}
}

func TestNewGatewayRequiresProviders(t *testing.T) {
	if _, err := NewGateway(nil, 0.7, nil); err == nil {
		t.Fatal("expected error for empty chain")
	}
	if _, err := NewGateway([]Provider{&stubProvider{name: "x"}}, 0, nil); err == nil {
		t.Fatal("expected error for zero threshold")
	}
}

func TestGatewayHealthReportsProbedProviders(t *testing.T) {
	healthy := &pingableStub{stubProvider: stubProvider{name: "healthy"}}
	broken := &pingableStub{stubProvider: stubProvider{name: "broken"}, pingErr: errors.New("auth failed")}
	plain := &stubProvider{name: "plain"}

	gw, err := NewGateway([]Provider{healthy, broken, plain}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	report := gw.Health(context.Background())
	if report.Status != "warning" {
		t.Fatalf("partially degraded chain should report warning, got %q", report.Status)
	}
	if len(report.Providers) != 3 {
		t.Fatalf("expected three providers, got %+v", report.Providers)
	}
	if !report.Providers[0].Available {
		t.Fatal("probed healthy provider should be available")
	}
	if report.Providers[1].Available || report.Providers[1].Error == "" {
		t.Fatalf("broken provider should carry its error, got %+v", report.Providers[1])
	}
	if !report.Providers[2].Available {
		t.Fatal("provider without a probe counts as available")
	}
}

func TestGatewayHealthStatusSpansChainAvailability(t *testing.T) {
	working := &pingableStub{stubProvider: stubProvider{name: "working"}}
	broken := &pingableStub{stubProvider: stubProvider{name: "broken"}, pingErr: errors.New("auth failed")}

	gw, err := NewGateway([]Provider{working, &stubProvider{name: "plain"}}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if report := gw.Health(context.Background()); report.Status != "healthy" {
		t.Fatalf("fully available chain should be healthy, got %q", report.Status)
	}

	gw, err = NewGateway([]Provider{broken}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if report := gw.Health(context.Background()); report.Status != "error" {
		t.Fatalf("fully broken chain should be error, got %q", report.Status)
	}
}

func TestGatewayHealthReportsPrimaryPresence(t *testing.T) {
	gw, err := NewGateway([]Provider{&stubProvider{name: "scanner"}}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	report := gw.Health(context.Background())
	if report.HasPrimary {
		t.Fatal("scanner-only chain must not report the primary key as configured")
	}
	if report.Status != "healthy" {
		t.Fatalf("available fallback chain is still healthy, got %q", report.Status)
	}

	gw, err = NewGateway([]Provider{&stubProvider{name: NameMoondream}, &stubProvider{name: "scanner"}}, 0.7, nil)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if report := gw.Health(context.Background()); !report.HasPrimary {
		t.Fatal("chain with the moondream rung should report the primary key as configured")
	}
}

type pingableStub struct {
	stubProvider
	pingErr error
}

func (p *pingableStub) Ping(ctx context.Context) error { return p.pingErr }
