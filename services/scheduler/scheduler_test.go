package schedulersvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/pairing"
)

type pairsSvcMock struct {
	pairing.ServiceInterface
	mu    sync.Mutex
	calls int
	err   error
}

func (m *pairsSvcMock) GenerateNextWeek(context.Context, *int64) (pairing.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return pairing.Result{Assignment: pairing.Assignment{Week: m.calls}}, m.err
}

func (m *pairsSvcMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("every monday", &pairsSvcMock{}, core.NewNopLogger())
	assert.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "generated"},
		{name: "locked", err: pairing.ErrLockNotAcquired},
		{name: "failure", err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &pairsSvcMock{err: tt.err}
			s, err := New("0 8 * * 1", svc, core.NewNopLogger())
			require.NoError(t, err)
			s.Start()
			defer func() { _ = s.Stop() }()

			require.NoError(t, s.RunNow())
			assert.Eventually(t, func() bool { return svc.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}
