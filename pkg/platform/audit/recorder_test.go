package audit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	audit "medplant/pkg/platform/audit"
	"medplant/pkg/platform/audit/mocks"
	"medplant/pkg/platform/audit/store/memory"
	"medplant/pkg/platform/circuit"
	"medplant/pkg/requestcontext"
)

type RecorderSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	sink     *mocks.MockSink
	queue    *mocks.MockQueue
	fallback *bytes.Buffer
	metrics  *audit.Metrics
	ctx      context.Context
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sink = mocks.NewMockSink(s.ctrl)
	s.queue = mocks.NewMockQueue(s.ctrl)
	s.fallback = &bytes.Buffer{}
	s.metrics = audit.NewMetrics(prometheus.NewRegistry())

	tenant := int64(7)
	ctx := requestcontext.WithPrincipal(context.Background(), requestcontext.Principal{
		ID: "u-1", Name: "alice", FullName: "Alice Adams", TenantID: &tenant,
	})
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	s.ctx = requestcontext.WithTime(ctx, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
}

func (s *RecorderSuite) newRecorder(opts ...audit.Option) *audit.Recorder {
	base := []audit.Option{
		audit.WithFallbackLogger(slog.New(slog.NewJSONHandler(s.fallback, nil))),
		audit.WithMetrics(s.metrics),
	}
	return audit.NewRecorder(s.sink, append(base, opts...)...)
}

func (s *RecorderSuite) TestRecordEnrichesFromContext() {
	var got audit.Entry
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Entry) error {
		got = e
		return nil
	})

	s.newRecorder().Record(s.ctx, audit.Entry{EntityType: "DEPARTMENT", Action: "DEPARTMENT_CREATE"})

	s.NotEqual("00000000-0000-0000-0000-000000000000", got.ID.String())
	s.Equal("alice - Alice Adams", got.Actor)
	s.Equal(int64(7), *got.TenantID)
	s.Equal("req-1", got.RequestID)
	s.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), got.Timestamp)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Writes.WithLabelValues("sink")))
}

func (s *RecorderSuite) TestRecordWithoutPrincipalUsesUnknownActor() {
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Entry) error {
		s.Equal("Unknown", e.Actor)
		s.Nil(e.TenantID)
		return nil
	})
	s.newRecorder().Record(context.Background(), audit.Entry{Action: "X"})
}

func (s *RecorderSuite) TestSinkFailureFallsBackToQueue() {
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Entry) error {
		s.Equal("DEPARTMENT_DELETE", e.Action)
		return nil
	})

	s.newRecorder(audit.WithQueue(s.queue)).Record(s.ctx, audit.Entry{Action: "DEPARTMENT_DELETE"})

	s.Empty(s.fallback.String())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Writes.WithLabelValues("queue")))
}

func (s *RecorderSuite) TestSinkAndQueueFailureLogsFullEntry() {
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	s.newRecorder(audit.WithQueue(s.queue)).Record(s.ctx, audit.Entry{
		EntityType: "DEPARTMENT",
		Action:     "DEPARTMENT_CREATE",
		After:      []byte(`{"name":"Cardiology"}`),
	})

	out := s.fallback.String()
	s.Contains(out, "audit entry not persisted")
	s.Contains(out, "DEPARTMENT_CREATE")
	s.Contains(out, "Cardiology")
	s.Contains(out, "db down")
	s.Contains(out, "redis down")
}

func (s *RecorderSuite) TestOpenBreakerSkipsSink() {
	breaker := circuit.New("audit", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	r := s.newRecorder(audit.WithQueue(s.queue), audit.WithBreaker(breaker))

	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(1)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	r.Record(s.ctx, audit.Entry{Action: "A"})
	r.Record(s.ctx, audit.Entry{Action: "B"})

	s.True(breaker.IsOpen())
}

func (s *RecorderSuite) TestSlowSinkIsBoundedByTimeout() {
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ audit.Entry) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	s.newRecorder(audit.WithTimeout(20 * time.Millisecond)).Record(s.ctx, audit.Entry{Action: "SLOW"})

	s.Less(time.Since(start), time.Second)
	s.Contains(s.fallback.String(), "SLOW")
}

func (s *RecorderSuite) TestCancelledRequestStillWrites() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ audit.Entry) error {
		return ctx.Err()
	})

	s.newRecorder().Record(ctx, audit.Entry{Action: "X"})
	s.Empty(s.fallback.String())
}

func (s *RecorderSuite) TestAsyncDrainsOnClose() {
	store := memory.NewInMemoryStore()
	r := audit.NewRecorder(store, audit.WithAsyncBuffer(100))

	for range 10 {
		r.RecordAsync(s.ctx, audit.Entry{Action: "DEPARTMENT_VIEW"})
	}
	r.Close()

	s.Equal(10, store.Len())
}

func (s *RecorderSuite) TestAsyncAfterCloseGoesToFallback() {
	r := audit.NewRecorder(memory.NewInMemoryStore(),
		audit.WithAsyncBuffer(1),
		audit.WithFallbackLogger(slog.New(slog.NewJSONHandler(s.fallback, nil))),
	)
	r.Close()
	r.Close()

	r.RecordAsync(s.ctx, audit.Entry{Action: "LATE_VIEW"})
	s.Contains(s.fallback.String(), "LATE_VIEW")
	s.Contains(s.fallback.String(), audit.ErrRecorderClosed.Error())
}

func (s *RecorderSuite) TestAsyncWithoutBufferWritesInline() {
	store := memory.NewInMemoryStore()
	audit.NewRecorder(store).RecordAsync(s.ctx, audit.Entry{Action: "X"})
	s.Equal(1, store.Len())
}

type department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Desc string `json:"description"`
}

func (s *RecorderSuite) TestHelpers() {
	store := memory.NewInMemoryStore()
	r := audit.NewRecorder(store)
	before := department{ID: 1, Name: "Cardiology", Desc: "heart"}
	after := department{ID: 1, Name: "Cardiology", Desc: "heart and vessels"}

	r.Attempted(s.ctx, "DEPARTMENT", audit.OpUpdate, "1", "update attempt")
	r.Rejected(s.ctx, "DEPARTMENT", audit.OpUpdate, audit.SuffixRateLimited, "1", "too many edits")
	r.Created(s.ctx, "DEPARTMENT", "1", before, "created")
	r.Updated(s.ctx, "DEPARTMENT", "1", before, after, "updated")
	r.Deleted(s.ctx, "DEPARTMENT", "1", after, "deleted")
	r.Viewed(s.ctx, "DEPARTMENT", audit.OpView, "1", "viewed")
	r.Listed(s.ctx, "DEPARTMENT", 3)

	all, err := store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 7)

	actions := make([]string, 0, len(all))
	for _, e := range all {
		actions = append(actions, e.Action)
	}
	s.Equal([]string{
		"DEPARTMENT_UPDATE_ATTEMPT",
		"DEPARTMENT_UPDATE_RATE_LIMITED",
		"DEPARTMENT_CREATE",
		"DEPARTMENT_UPDATE",
		"DEPARTMENT_DELETE",
		"DEPARTMENT_VIEW",
		"DEPARTMENT_LIST",
	}, actions)

	s.Nil(all[0].After)
	s.JSONEq(`{"id":1,"name":"Cardiology","description":"heart"}`, string(all[2].After))
	s.Equal([]string{"description"}, all[3].Changes)
	s.NotNil(all[3].Before)
	s.NotNil(all[4].Before)
	s.NotNil(all[4].After)
	s.Equal("listed 3 records", all[6].Description)
}
