package psi

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-psych/internal/testutil"
	"github.com/cwbudde/algo-psych/psychometric"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := tinyConfig()
	orig := mustNew(t, cfg)
	script := &testutil.Script{Responses: []psychometric.Response{1, 0, 1, 1, 0, 1, 1, 1, 0, 1}}

	for range 6 {
		orig.Update(script.Respond(orig.Next()))
	}

	snap := orig.Snapshot()
	snap.Label = "condition A"

	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, snap); err != nil {
		t.Fatalf("EncodeSnapshot() error = %v", err)
	}

	decoded, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}

	if decoded.Label != "condition A" || decoded.Trials != 6 {
		t.Fatalf("decoded label %q trials %d", decoded.Label, decoded.Trials)
	}

	cfg.ResumeFrom = &decoded
	resumed := mustNew(t, cfg)

	if resumed.Trials() != 6 || len(resumed.History()) != 0 {
		t.Fatalf("resumed Trials() = %d, history %d", resumed.Trials(), len(resumed.History()))
	}

	for range 4 {
		if resumed.Next() != orig.Next() {
			t.Fatalf("resumed Next() = %v, original %v", resumed.Next(), orig.Next())
		}

		testutil.RequireSliceNearlyEqual(t, resumed.Posterior(), orig.Posterior(), 1e-12)

		r := script.Respond(orig.Next())
		orig.Update(r)
		resumed.Update(r)
	}

	got, want := resumed.Estimate(), orig.Estimate()
	testutil.RequireNearlyEqual(t, "alpha", got.Alpha, want.Alpha, 1e-9)
	testutil.RequireNearlyEqual(t, "beta", got.Beta, want.Beta, 1e-9)
	testutil.RequireNearlyEqual(t, "lambda", got.Lambda, want.Lambda, 1e-9)
}

func TestRestoreGridMismatch(t *testing.T) {
	e := mustNew(t, tinyConfig())
	snap := e.Snapshot()

	other := tinyConfig()
	other.Alpha = Axis{Limits: [2]float64{-2, 0}, Step: 1}
	if err := mustNew(t, other).Restore(snap); !errors.Is(err, ErrGridMismatch) {
		t.Fatalf("Restore() on shifted grid error = %v, want ErrGridMismatch", err)
	}

	other = tinyConfig()
	other.Stimulus.Step = 0.5
	other.Alpha.Step = 0.5
	if err := mustNew(t, other).Restore(snap); !errors.Is(err, ErrGridMismatch) {
		t.Fatalf("Restore() on reshaped grid error = %v, want ErrGridMismatch", err)
	}

	snap.Posterior[0] = -1
	if err := e.Restore(snap); !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("Restore() with negative mass error = %v, want ErrCorruptSnapshot", err)
	}
}

func TestDecodeSnapshotCorrupt(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, mustNew(t, tinyConfig()).Snapshot()); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", data[:10]},
		{"truncated posterior", data[:len(data)-3]},
		{"bad magic", append([]byte("XXXX"), data[4:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSnapshot(bytes.NewReader(tt.data)); !errors.Is(err, ErrCorruptSnapshot) {
				t.Fatalf("DecodeSnapshot() error = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestStores(t *testing.T) {
	dir, err := NewDirStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"dir":    dir,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load("left ear"); !errors.Is(err, ErrNoSnapshot) {
				t.Fatalf("Load() of missing label error = %v, want ErrNoSnapshot", err)
			}

			e := mustNew(t, tinyConfig())
			e.UpdateAt(1, psychometric.Correct)

			snap := e.Snapshot()
			snap.Label = "left ear"
			if err := store.Save(snap); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			snap.Posterior[0] = 42

			got, err := store.Load("left ear")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			testutil.RequireSliceNearlyEqual(t, got.Posterior, e.Posterior(), 0)

			if got.Trials != 1 || got.Shape() != e.Shape() {
				t.Fatalf("loaded trials %d shape %v", got.Trials, got.Shape())
			}

			for _, bad := range []string{"", "..", "a/b", `a\b`} {
				snap.Label = bad
				if err := store.Save(snap); !errors.Is(err, ErrInvalidLabel) {
					t.Fatalf("Save(%q) error = %v, want ErrInvalidLabel", bad, err)
				}
			}
		})
	}

	if _, err := os.Stat(dir.Path("left ear")); err != nil {
		t.Fatalf("snapshot file: %v", err)
	}
}
