package proofrequest

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newLifecycle() *Lifecycle {
	return NewLifecycle(&ProofRequest{ID: "pr-1", TemplateID: "tmpl-1", Status: Generated, CreatedAt: time.Now()})
}

func TestLifecycle_Apply(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		l := newLifecycle()

		for _, s := range []Status{Scanned, RequestSent, ProofReceived} {
			tr := l.Apply(Update{Status: s}, SourceChannel)
			require.Equal(t, Advanced, tr.Outcome)
			require.Equal(t, s, tr.To)
			require.Equal(t, s, tr.Snapshot.Status)
		}

		now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }
		tr := l.Apply(Update{Status: Verified, Result: json.RawMessage(`{"age":true}`)}, SourcePoll)
		require.Equal(t, Advanced, tr.Outcome)
		require.Equal(t, ProofReceived, tr.From)
		require.Equal(t, Verified, tr.Snapshot.Status)
		require.JSONEq(t, `{"age":true}`, string(tr.Snapshot.VerificationResult))
		require.Equal(t, now, *tr.Snapshot.VerifiedAt)
	})

	t.Run("late scan does not regress", func(t *testing.T) {
		l := newLifecycle()
		l.Apply(Update{Status: ProofReceived}, SourceChannel)

		tr := l.Apply(Update{Status: Scanned}, SourcePoll)
		require.Equal(t, Rejected, tr.Outcome)
		require.Equal(t, ProofReceived, l.Snapshot().Status)
	})

	t.Run("repeated status is unchanged", func(t *testing.T) {
		l := newLifecycle()
		l.Apply(Update{Status: Scanned}, SourceChannel)

		tr := l.Apply(Update{Status: Scanned}, SourcePoll)
		require.Equal(t, Unchanged, tr.Outcome)
		require.Equal(t, Scanned, tr.To)
	})

	t.Run("terminal from any earlier status", func(t *testing.T) {
		l := newLifecycle()

		tr := l.Apply(Update{Status: Failed, Error: "holder declined"}, SourceChannel)
		require.Equal(t, Advanced, tr.Outcome)
		require.Equal(t, "holder declined", tr.Snapshot.ErrorMessage)
		require.Nil(t, tr.Snapshot.VerifiedAt)
	})

	t.Run("terminal absorbs later updates", func(t *testing.T) {
		l := newLifecycle()
		l.Apply(Update{Status: Verified}, SourceChannel)

		for _, s := range []Status{Generated, Scanned, ProofReceived, Failed, Expired, Verified} {
			tr := l.Apply(Update{Status: s}, SourcePoll)
			require.Equal(t, Rejected, tr.Outcome)
			require.Equal(t, Verified, tr.Snapshot.Status)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		l := newLifecycle()

		tr := l.Apply(Update{Status: "pending"}, SourcePoll)
		require.Equal(t, Rejected, tr.Outcome)
		require.Equal(t, Generated, l.Snapshot().Status)
	})

	t.Run("terminal stops tracking", func(t *testing.T) {
		l := newLifecycle()
		cancelled := false
		l.cancel = func() { cancelled = true }
		l.expiry = time.AfterFunc(time.Hour, func() {})

		l.Apply(Update{Status: Verified}, SourceChannel)
		require.True(t, cancelled)
		require.Nil(t, l.expiry)
		require.Nil(t, l.cancel)
	})

	t.Run("concurrent push and poll converge", func(t *testing.T) {
		l := newLifecycle()
		order := []Status{Scanned, RequestSent, ProofReceived}

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := range order {
					// pollers replay the sequence backwards
					s := order[j]
					if i%2 == 1 {
						s = order[len(order)-1-j]
					}
					l.Apply(Update{Status: s}, SourceChannel)
				}
			}(i)
		}
		wg.Wait()

		require.Equal(t, ProofReceived, l.Snapshot().Status)
	})
}

func TestLifecycle_Expire(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		l := newLifecycle()

		tr := l.Expire()
		require.Equal(t, Advanced, tr.Outcome)
		require.Equal(t, SourceTimer, tr.Source)
		require.Equal(t, Expired, l.Snapshot().Status)
	})

	t.Run("scanned request does not expire", func(t *testing.T) {
		l := newLifecycle()
		l.Apply(Update{Status: Scanned}, SourceChannel)

		tr := l.Expire()
		require.Equal(t, Unchanged, tr.Outcome)
		require.Equal(t, Scanned, l.Snapshot().Status)
	})
}

func TestLifecycle_Snapshot(t *testing.T) {
	l := newLifecycle()
	l.Apply(Update{Status: Verified, Result: json.RawMessage(`{"a":1}`)}, SourceChannel)

	snap := l.Snapshot()
	snap.Status = Generated
	snap.VerificationResult[2] = 'b'

	again := l.Snapshot()
	require.Equal(t, Verified, again.Status)
	require.JSONEq(t, `{"a":1}`, string(again.VerificationResult))
}

func TestStatus_Rank(t *testing.T) {
	require.Equal(t, -1, Status("pending").Rank())
	require.False(t, Status("pending").Valid())
	require.True(t, Expired.Terminal())
	require.False(t, ProofReceived.Terminal())
	require.Less(t, Scanned.Rank(), RequestSent.Rank())
	require.Equal(t, Verified.Rank(), Failed.Rank())
}
