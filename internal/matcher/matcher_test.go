package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/catalog-assets/internal/ai"
	"github.com/spigell/catalog-assets/internal/catalog"
)

const catalogJSON = `[
  {
    "id": 7,
    "nombre": "Silla",
    "color": "Rojo",
    "precio": 25000
  },
  {
    "id": 8,
    "nombre": "Mesa",
    "imagen": "assets/mesa-vieja.jpg",
    "precio": 40000
  },
  {
    "id": 9,
    "nombre": "Lámpara",
    "imagen": "",
    "precio": 9000
  }
]
`

var files = []string{"7-rojo.jpg", "7.png", "8.png", "silla-azul.png"}

func parse(t *testing.T, data string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestPropose(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	m := New(Options{}, nil, zap.New(core))

	report, err := m.Propose(context.Background(), parse(t, catalogJSON), files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Report{
		Proposals: []Proposal{{
			Index:       0,
			ProductID:   "7",
			ProductName: "Silla",
			File:        "7-rojo.jpg",
			Path:        "assets/7-rojo.jpg",
			Score:       100,
			Source:      SourceHeuristic,
		}},
		Unmatched: []Unmatched{{Index: 2, ProductID: "9", ProductName: "Lámpara"}},
		Skipped:   1,
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("unexpected report (-want +got):\n%s", diff)
	}

	if observed.FilterMessage("no match").Len() != 1 {
		t.Fatalf("expected a single no match log entry")
	}
	found := observed.FilterMessage("candidate found").All()
	if len(found) != 1 || found[0].ContextMap()["product_id"] != "7" {
		t.Fatalf("unexpected candidate logs: %+v", found)
	}
}

func TestProposeOverwrite(t *testing.T) {
	m := New(Options{Overwrite: true, PublicPrefix: "img/products"}, nil, nil)

	report, err := m.Propose(context.Background(), parse(t, catalogJSON), files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Skipped != 0 || len(report.Proposals) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	mesa := report.Proposals[1]
	if mesa.File != "8.png" || mesa.Previous != "assets/mesa-vieja.jpg" || mesa.Path != "img/products/8.png" {
		t.Fatalf("unexpected overwrite proposal: %+v", mesa)
	}
}

func TestProposeHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(Options{}, nil, nil).Propose(ctx, parse(t, catalogJSON), files); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

type stubAdvisor struct {
	suggestion *ai.Suggestion
	err        error
	calls      []catalog.ID
}

func (s *stubAdvisor) Suggest(_ context.Context, p *catalog.Product, _ []string) (*ai.Suggestion, error) {
	s.calls = append(s.calls, p.ID)
	return s.suggestion, s.err
}

func TestProposeWithAdvisor(t *testing.T) {
	tests := []struct {
		name      string
		advisor   *stubAdvisor
		proposals int
	}{
		{
			name:      "accepted suggestion",
			advisor:   &stubAdvisor{suggestion: &ai.Suggestion{File: "silla-azul.png", Confidence: 0.9, Reason: "looks like a lamp"}},
			proposals: 2,
		},
		{
			name:      "below threshold",
			advisor:   &stubAdvisor{suggestion: &ai.Suggestion{File: "silla-azul.png", Confidence: 0.2}},
			proposals: 1,
		},
		{
			name:      "unknown file",
			advisor:   &stubAdvisor{suggestion: &ai.Suggestion{File: "lampara.png", Confidence: 1}},
			proposals: 1,
		},
		{
			name:      "nothing suitable",
			advisor:   &stubAdvisor{suggestion: &ai.Suggestion{}},
			proposals: 1,
		},
		{
			name:      "advisor error",
			advisor:   &stubAdvisor{err: errors.New("quota exceeded")},
			proposals: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(Options{MinimumConfidence: 0.5}, tt.advisor, zap.NewNop())

			report, err := m.Propose(context.Background(), parse(t, catalogJSON), files)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff([]catalog.ID{"9"}, tt.advisor.calls); diff != "" {
				t.Fatalf("advisor must only see unmatched products (-want +got):\n%s", diff)
			}
			if len(report.Proposals) != tt.proposals {
				t.Fatalf("expected %d proposals, got %+v", tt.proposals, report.Proposals)
			}
			if tt.proposals == 1 && len(report.Unmatched) != 1 {
				t.Fatalf("expected lamp to stay unmatched: %+v", report)
			}
			if tt.proposals == 2 {
				lamp := report.Proposals[1]
				if lamp.Source != SourceAI || lamp.Score != 0.9 || lamp.Reason == "" {
					t.Fatalf("unexpected ai proposal: %+v", lamp)
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	c := parse(t, catalogJSON)
	m := New(Options{Overwrite: true}, nil, nil)

	report, err := m.Propose(context.Background(), c, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rejectMesa := AcceptorFunc(func(p Proposal) (bool, error) { return p.ProductID != "8", nil })
	applied, err := m.Apply(c, report, rejectMesa)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if applied != 1 || c.Changed() != 1 {
		t.Fatalf("expected one applied change, got %d (changed %d)", applied, c.Changed())
	}
	if c.Products[0].Image != "assets/7-rojo.jpg" || c.Products[1].Image != "assets/mesa-vieja.jpg" {
		t.Fatalf("unexpected images: %q %q", c.Products[0].Image, c.Products[1].Image)
	}
}

func TestApplyStopAndError(t *testing.T) {
	c := parse(t, catalogJSON)
	m := New(Options{Overwrite: true}, nil, nil)

	report, err := m.Propose(context.Background(), c, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stop := AcceptorFunc(func(Proposal) (bool, error) { return false, ErrStop })
	applied, err := m.Apply(c, report, stop)
	if err != nil || applied != 0 || c.Changed() != 0 {
		t.Fatalf("expected a clean stop, got applied=%d err=%v", applied, err)
	}

	boom := errors.New("terminal closed")
	failing := AcceptorFunc(func(Proposal) (bool, error) { return false, boom })
	if _, err := m.Apply(c, report, failing); !errors.Is(err, boom) {
		t.Fatalf("expected acceptor error, got %v", err)
	}
}

// run mirrors one write-mode invocation of the cli.
func run(t *testing.T, fs afero.Fs, opts Options) int {
	t.Helper()

	store := catalog.NewStore(fs, "products.json")
	c, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := New(opts, nil, nil)
	report, err := m.Propose(context.Background(), c, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	applied, err := m.Apply(c, report, AcceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return applied
}

func TestWriteRunsAreIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "products.json", []byte(catalogJSON), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if applied := run(t, fs, Options{}); applied != 1 {
		t.Fatalf("expected first run to apply 1 change, got %d", applied)
	}
	first, _ := afero.ReadFile(fs, "products.json")

	if applied := run(t, fs, Options{}); applied != 0 {
		t.Fatalf("expected second run to apply nothing, got %d", applied)
	}
	second, _ := afero.ReadFile(fs, "products.json")

	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Fatalf("second run changed the catalog (-first +second):\n%s", diff)
	}

	// Existing assignments survive untouched; the unmatched product keeps its empty image.
	if !strings.Contains(string(second), `"imagen": "assets/mesa-vieja.jpg"`) {
		t.Fatalf("existing image was modified:\n%s", second)
	}
	if !strings.Contains(string(second), `"nombre": "Lámpara",
    "imagen": "",`) {
		t.Fatalf("unmatched product was modified:\n%s", second)
	}

	// With overwrite on, the already assigned silla proposal is a no-op; only the mesa changes.
	if applied := run(t, fs, Options{Overwrite: true}); applied != 1 {
		t.Fatalf("expected overwrite run to apply 1 change, got %d", applied)
	}
}

func TestExistingImageRecordUnchanged(t *testing.T) {
	c := parse(t, catalogJSON)
	m := New(Options{}, nil, nil)

	report, err := m.Propose(context.Background(), c, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Apply(c, report, AcceptAll); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := c.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mesa := `  {
    "id": 8,
    "nombre": "Mesa",
    "imagen": "assets/mesa-vieja.jpg",
    "precio": 40000
  },`
	if !strings.Contains(catalogJSON, mesa) || !strings.Contains(string(out), mesa) {
		t.Fatalf("record with existing image changed:\n%s", out)
	}
}
