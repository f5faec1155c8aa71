package memsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// thresholdProber succeeds once memMB reaches need[file] and counts every
// invocation per (file, memMB).
type thresholdProber struct {
	need  map[string]int
	fatal map[string]int
	calls map[string]map[int]int
	order []string
}

func newThresholdProber() *thresholdProber {
	return &thresholdProber{
		need:  make(map[string]int),
		fatal: make(map[string]int),
		calls: make(map[string]map[int]int),
	}
}

func (p *thresholdProber) Probe(_ context.Context, file string, memMB int) (int, error) {
	if p.calls[file] == nil {
		p.calls[file] = make(map[int]int)
	}

	p.calls[file][memMB]++
	p.order = append(p.order, file)

	if at, ok := p.fatal[file]; ok && memMB >= at {
		return DefaultFatalCode, nil
	}

	if memMB >= p.need[file] {
		return 0, nil
	}

	return 1, nil
}

func TestSearchReturnsLargestFailing(t *testing.T) {
	for k := 1; k <= DefaultMaxMB; k++ {
		p := newThresholdProber()
		p.need["f"] = k

		got, err := NewSearcher(DefaultConfig(), p).Search(context.Background(), "f")
		require.NoError(t, err)

		if got != k-1 {
			t.Fatalf("need %dMB: got %d, want %d", k, got, k-1)
		}
	}
}

func TestSearchExceeded(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		need int
		want int
	}{
		{"default bounds", DefaultConfig(), 5000, 8192},
		{"never succeeds", DefaultConfig(), 1 << 30, 8192},
		{"small max", Config{StartMB: 1, MaxMB: 100, FatalCode: 42}, 101, 200},
		// Doubling jumps from 32 straight past 63.
		{"max not a power of two", Config{StartMB: 1, MaxMB: 63, FatalCode: 42}, 40, 126},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newThresholdProber()
			p.need["f"] = tt.need

			got, err := NewSearcher(tt.cfg, p).Search(context.Background(), "f")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchExceededSkipsBisection(t *testing.T) {
	p := newThresholdProber()
	p.need["f"] = 1 << 30

	_, err := NewSearcher(DefaultConfig(), p).Search(context.Background(), "f")
	require.NoError(t, err)

	for mem := range p.calls["f"] {
		assert.Equal(t, 0, mem&(mem-1), "probed non power of two %d", mem)
	}

	assert.Len(t, p.calls["f"], 13)
}

func TestSearchProbesEachMemoryOnce(t *testing.T) {
	for _, k := range []int{1, 2, 3, 17, 100, 1023, 1024, 1025, 4096} {
		p := newThresholdProber()
		p.need["f"] = k

		_, err := NewSearcher(DefaultConfig(), p).Search(context.Background(), "f")
		require.NoError(t, err)

		for mem, n := range p.calls["f"] {
			assert.Equal(t, 1, n, "need %d: %dMB probed %d times", k, mem, n)
		}
	}
}

func TestSearchCacheIsPerFile(t *testing.T) {
	p := newThresholdProber()
	p.need["a"] = 10
	p.need["b"] = 10

	s := NewSearcher(DefaultConfig(), p)

	_, err := s.Search(context.Background(), "a")
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, p.calls["a"], p.calls["b"])
}

func TestSearchFatalExit(t *testing.T) {
	p := newThresholdProber()
	p.need["f"] = 1000
	p.fatal["f"] = 16

	_, err := NewSearcher(DefaultConfig(), p).Search(context.Background(), "f")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFatalExit))

	var fatal *FatalExitError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, "f", fatal.File)
	assert.Equal(t, 16, fatal.MemMB)
	assert.Equal(t, DefaultFatalCode, fatal.Code)
	assert.NotContains(t, p.calls["f"], 32)
}

type errProber struct{ err error }

func (p errProber) Probe(context.Context, string, int) (int, error) {
	return 0, p.err
}

func TestSearchProbeError(t *testing.T) {
	_, err := NewSearcher(DefaultConfig(), errProber{context.Canceled}).
		Search(context.Background(), "f")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrFatalExit)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero start", Config{StartMB: 0, MaxMB: 10, FatalCode: 42}, true},
		{"max below start", Config{StartMB: 8, MaxMB: 4, FatalCode: 42}, true},
		{"zero fatal code", Config{StartMB: 1, MaxMB: 4, FatalCode: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
