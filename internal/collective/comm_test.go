package collective_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/collective"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// runRanks calls fn once per rank, concurrently, and returns the per-rank errors.
func runRanks(n int, fn func(rank int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			errs[r] = fn(r)
		}(r)
	}
	wg.Wait()
	return errs
}

func TestNew_Size(t *testing.T) {
	t.Parallel()

	_, err := collective.New(0)
	require.ErrorIs(t, err, collective.ErrSize)

	c, err := collective.New(3)
	require.NoError(t, err)
	require.Equal(t, 3, c.Size())
}

func TestScatterGatherBroadcast(t *testing.T) {
	t.Parallel()

	const n = 8
	ctx := context.Background()
	c, err := collective.New(n)
	require.NoError(t, err)

	scattered := make([][]byte, n)
	gathered := make([][][]byte, n)
	broadcast := make([][]byte, n)

	errs := runRanks(n, func(rank int) error {
		var parts [][]byte
		if rank == collective.Root {
			for i := 0; i < n; i++ {
				parts = append(parts, []byte{byte(i)})
			}
		}
		got, err := c.Scatter(ctx, rank, parts)
		if err != nil {
			return err
		}
		scattered[rank] = got

		all, err := c.Gather(ctx, rank, []byte(fmt.Sprintf("r%d", rank)))
		if err != nil {
			return err
		}
		gathered[rank] = all

		var payload []byte
		if rank == collective.Root {
			payload = []byte("tour")
		}
		b, err := c.Broadcast(ctx, rank, payload)
		if err != nil {
			return err
		}
		broadcast[rank] = b
		return c.Barrier(ctx, rank)
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	for r := 0; r < n; r++ {
		require.Equal(t, []byte{byte(r)}, scattered[r])
		require.Equal(t, []byte("tour"), broadcast[r])
		if r == collective.Root {
			require.Len(t, gathered[r], n)
			for i, p := range gathered[r] {
				require.Equal(t, fmt.Sprintf("r%d", i), string(p))
			}
		} else {
			require.Nil(t, gathered[r])
		}
	}
}

func TestGather_BlocksUntilAllArrive(t *testing.T) {
	t.Parallel()

	c, err := collective.New(2)
	require.NoError(t, err)

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		_, _ = c.Gather(context.Background(), 0, []byte("a"))
	}()

	select {
	case <-returned:
		t.Fatal("root returned from gather before rank 1 contributed")
	case <-time.After(20 * time.Millisecond):
	}

	_, err = c.Gather(context.Background(), 1, []byte("b"))
	require.NoError(t, err)

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("root did not return after every rank contributed")
	}
}

func TestRankOutOfRange(t *testing.T) {
	t.Parallel()

	c, err := collective.New(2)
	require.NoError(t, err)

	_, err = c.Gather(context.Background(), 2, nil)
	require.ErrorIs(t, err, collective.ErrRank)

	err = c.Barrier(context.Background(), -1)
	require.ErrorIs(t, err, collective.ErrRank)
}

func TestScatter_PartCount(t *testing.T) {
	t.Parallel()

	c, err := collective.New(3)
	require.NoError(t, err)

	_, err = c.Scatter(context.Background(), collective.Root, [][]byte{{1}})
	require.ErrorIs(t, err, collective.ErrPartCount)
}

func TestMismatchedOperation(t *testing.T) {
	t.Parallel()

	c, err := collective.New(2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Whichever rank arrives second sees the mismatch; the other is released by cancel.
	errs := runRanks(2, func(rank int) error {
		var err error
		if rank == 0 {
			_, err = c.Gather(ctx, rank, nil)
		} else {
			_, err = c.Broadcast(ctx, rank, nil)
		}
		if errors.Is(err, collective.ErrMismatch) {
			cancel()
		}
		return err
	})

	mismatches, cancelled := 0, 0
	for _, err := range errs {
		switch {
		case errors.Is(err, collective.ErrMismatch):
			mismatches++
		case errors.Is(err, context.Canceled):
			cancelled++
		}
	}
	require.Equal(t, 1, mismatches)
	require.Equal(t, 1, cancelled)
}

func TestContextCancelUnblocks(t *testing.T) {
	t.Parallel()

	c, err := collective.New(3)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errs := runRanks(2, func(rank int) error {
		return c.Barrier(ctx, rank)
	})
	for _, err := range errs {
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestManyRounds(t *testing.T) {
	t.Parallel()

	const n, rounds = 5, 50
	c, err := collective.New(n)
	require.NoError(t, err)

	sums := make([]int, n)
	errs := runRanks(n, func(rank int) error {
		for i := 0; i < rounds; i++ {
			var payload []byte
			if rank == collective.Root {
				payload = []byte{byte(i)}
			}
			b, err := c.Broadcast(context.Background(), rank, payload)
			if err != nil {
				return err
			}
			sums[rank] += int(b[0])
		}
		return nil
	})
	for r, err := range errs {
		require.NoError(t, err)
		require.Equal(t, rounds*(rounds-1)/2, sums[r])
	}
}

func TestMetrics(t *testing.T) {
	// Not parallel: the collectors are process-wide.
	c, err := collective.New(4)
	require.NoError(t, err)

	opsBefore := testutil.ToFloat64(metrics.CollectiveOps.WithLabelValues("gather"))
	bytesBefore := testutil.ToFloat64(metrics.CollectiveBytes.WithLabelValues("gather"))

	errs := runRanks(4, func(rank int) error {
		_, err := c.Gather(context.Background(), rank, make([]byte, 7))
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, opsBefore+1, testutil.ToFloat64(metrics.CollectiveOps.WithLabelValues("gather")))
	require.Equal(t, bytesBefore+28, testutil.ToFloat64(metrics.CollectiveBytes.WithLabelValues("gather")))
}
