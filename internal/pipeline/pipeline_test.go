package pipeline

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sells-group/outreach-cli/internal/dataset"
	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

// fakeGateway answers each stage with the configured function and counts calls.
type fakeGateway struct {
	research func(company string) (*gateway.ResearchReply, error)
	score    func(model.ResearchResult) (*gateway.ScoreReply, error)
	outreach func(gateway.OutreachRequest) (*gateway.OutreachReply, error)

	calls   atomic.Int32
	targets sync.Map
}

func (f *fakeGateway) Provider() string { return "fake" }

func (f *fakeGateway) Research(_ context.Context, company string) (*gateway.ResearchReply, error) {
	f.calls.Add(1)
	return f.research(company)
}

func (f *fakeGateway) Score(_ context.Context, r model.ResearchResult) (*gateway.ScoreReply, error) {
	f.calls.Add(1)
	return f.score(r)
}

func (f *fakeGateway) Outreach(_ context.Context, req gateway.OutreachRequest) (*gateway.OutreachReply, error) {
	f.calls.Add(1)
	f.targets.Store(req.Research.Company.Name, req.Target)
	return f.outreach(req)
}

var errGateway = errors.New("gateway unavailable")

func failingGateway() *fakeGateway {
	return &fakeGateway{
		research: func(string) (*gateway.ResearchReply, error) { return nil, errGateway },
		score:    func(model.ResearchResult) (*gateway.ScoreReply, error) { return nil, errGateway },
		outreach: func(gateway.OutreachRequest) (*gateway.OutreachReply, error) { return nil, errGateway },
	}
}

func okGateway(contacts []gateway.ContactReply) *fakeGateway {
	overall := gateway.FlexInt(64)
	return &fakeGateway{
		research: func(company string) (*gateway.ResearchReply, error) {
			return &gateway.ResearchReply{
				Company:  &gateway.CompanyReply{Name: company, Industry: "Logistics", Size: "smb"},
				Signals:  []gateway.SignalReply{{Type: "hiring", Strength: "high", Description: "Hiring AEs"}},
				Contacts: contacts,
				Summary:  "Worth a look.",
			}, nil
		},
		score: func(model.ResearchResult) (*gateway.ScoreReply, error) {
			return &gateway.ScoreReply{
				Overall:        &overall,
				Breakdown:      &gateway.BreakdownReply{ICPFit: 18, TimingSignals: 16, BudgetIndicators: 15, EngagementLikelihood: 15},
				Recommendation: "warm",
			}, nil
		},
		outreach: func(req gateway.OutreachRequest) (*gateway.OutreachReply, error) {
			return &gateway.OutreachReply{
				Email: &gateway.EmailReply{Subject: "Hello " + req.Research.Company.Name, Body: "Hi " + model.FirstName(req.Target.Name)},
			}, nil
		},
	}
}

func counterIDs() func() string {
	var n atomic.Int64
	return func() string { return "id-" + strconv.FormatInt(n.Add(1), 10) }
}

func newTestOrchestrator(gw gateway.Gateway, opts ...Option) *Orchestrator {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDs(counterIDs()),
		WithLookup(dataset.New(dataset.WithClock(func() time.Time { return fixedNow })).Lookup),
	}
	return New(gw, append(base, opts...)...)
}

func assertAllCompleted(t *testing.T, st model.PipelineState) {
	t.Helper()
	require.Len(t, st.Agents, 4)
	for i, name := range []model.AgentName{model.AgentResearch, model.AgentScoring, model.AgentContacts, model.AgentOutreach} {
		assert.Equal(t, name, st.Agents[i].Name)
		assert.Equal(t, model.AgentCompleted, st.Agents[i].Status, name)
		assert.Equal(t, 100, st.Agents[i].Progress, name)
	}
}

func assertScoreInRange(t *testing.T, s *model.ScoreResult) {
	t.Helper()
	require.NotNil(t, s)
	assert.GreaterOrEqual(t, s.Overall, 0)
	assert.LessOrEqual(t, s.Overall, 100)
	for _, c := range []int{s.Breakdown.ICPFit, s.Breakdown.TimingSignals, s.Breakdown.BudgetIndicators, s.Breakdown.EngagementLikelihood} {
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, 25)
	}
	assert.True(t, s.Recommendation.Valid())
}

func TestRun_KnownCompanyUsesDataset(t *testing.T) {
	gw := failingGateway()
	o := newTestOrchestrator(gw)

	st := o.Run(context.Background(), "Stripe", nil)
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineCompleted, st.Status)
	assertAllCompleted(t, st)
	assert.Equal(t, int32(0), gw.calls.Load())
	require.NotNil(t, st.Score)
	assert.Equal(t, 87, st.Score.Overall)
	assert.Equal(t, model.RecommendHot, st.Score.Recommendation)
	assert.Equal(t, "Stripe", st.Research.Company.Name)
	assert.NotEmpty(t, st.Outreach.Email.Subject)

	for _, a := range st.Agents {
		if a.Name == model.AgentContacts {
			assert.Equal(t, model.SourceDerived, a.Source)
			assert.Equal(t, "3 contacts identified", a.Message)
			continue
		}
		assert.Equal(t, model.SourceDataset, a.Source, a.Name)
	}
}

func TestRun_UnknownCompanyGatewaySuccess(t *testing.T) {
	gw := okGateway([]gateway.ContactReply{{Name: "Jo Park", Title: "CRO", Department: "sales"}})
	o := newTestOrchestrator(gw)

	st := o.Run(context.Background(), "Acme Unknown Co", nil)
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineCompleted, st.Status)
	assertAllCompleted(t, st)
	assert.Equal(t, int32(3), gw.calls.Load())
	assert.Equal(t, "Acme Unknown Co", st.Research.Company.Name)
	assert.Equal(t, model.SizeSMB, st.Research.Company.Size)
	assert.Equal(t, 64, st.Score.Overall)
	assert.Equal(t, "Hello Acme Unknown Co", st.Outreach.Email.Subject)
	assert.Equal(t, "Hi Jo", st.Outreach.Email.Body)
	assertScoreInRange(t, st.Score)

	research, _ := st.Agent(model.AgentResearch)
	assert.Equal(t, model.SourceGateway, research.Source)
}

func TestRun_GatewayTotalFailure(t *testing.T) {
	gw := failingGateway()
	o := newTestOrchestrator(gw)

	st := o.Run(context.Background(), "Acme Unknown Co", nil)
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineCompleted, st.Status)
	assert.Empty(t, st.Error)
	assertAllCompleted(t, st)
	assert.NotEmpty(t, st.Research.Summary)
	assert.NotEmpty(t, st.Research.Contacts)
	assertScoreInRange(t, st.Score)
	assert.NotEmpty(t, st.Outreach.Email.Body)

	for _, name := range []model.AgentName{model.AgentResearch, model.AgentScoring, model.AgentOutreach} {
		a, ok := st.Agent(name)
		require.True(t, ok)
		assert.Equal(t, model.SourceFallback, a.Source, name)
	}
}

func TestRun_EmptyContactsGetPlaceholder(t *testing.T) {
	gw := okGateway([]gateway.ContactReply{})
	o := newTestOrchestrator(gw)

	st := o.Run(context.Background(), "Acme Unknown Co", nil)
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineCompleted, st.Status)
	require.Len(t, st.Research.Contacts, 1)
	assert.Equal(t, model.PlaceholderContact(), st.Research.Contacts[0])

	target, ok := gw.targets.Load("Acme Unknown Co")
	require.True(t, ok)
	assert.Equal(t, "Decision Maker", target.(model.Contact).Name)
	assert.Equal(t, "Hi Decision", st.Outreach.Email.Body)

	contacts, _ := st.Agent(model.AgentContacts)
	assert.Equal(t, "1 contacts identified", contacts.Message)
}

func TestRun_EmptyName(t *testing.T) {
	var snapshots int
	o := newTestOrchestrator(failingGateway())

	st := o.Run(context.Background(), "   ", func([]model.AgentStatus) { snapshots++ })
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineError, st.Status)
	assert.Equal(t, "company name is required", st.Error)
	assert.Len(t, st.Agents, 4)
	assert.Nil(t, st.Research)
	assert.Equal(t, 1, snapshots)
}

func TestRun_PanicBecomesPipelineError(t *testing.T) {
	gw := failingGateway()
	gw.score = func(model.ResearchResult) (*gateway.ScoreReply, error) { panic("nil map write") }
	rec := &fakeRecorder{}
	o := newTestOrchestrator(gw, WithStore(rec))

	st := o.Run(context.Background(), "Acme Unknown Co", nil)
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineError, st.Status)
	assert.Contains(t, st.Error, "nil map write")
	assert.Nil(t, st.Score)

	research, _ := st.Agent(model.AgentResearch)
	assert.Equal(t, model.AgentCompleted, research.Status)
	scoring, _ := st.Agent(model.AgentScoring)
	assert.Equal(t, model.AgentError, scoring.Status)
	outreach, _ := st.Agent(model.AgentOutreach)
	assert.Equal(t, model.AgentPending, outreach.Status)

	require.Len(t, rec.saved(), 1)
	assert.Equal(t, model.PipelineError, rec.saved()[0].Status)
}

func TestRun_SnapshotsAreMonotonicCopies(t *testing.T) {
	var snaps [][]model.AgentStatus
	o := newTestOrchestrator(failingGateway())

	st := o.Run(context.Background(), "Notion", func(a []model.AgentStatus) {
		snaps = append(snaps, a)
		a[0].Status = model.AgentPending
		a[0].Progress = -1
	})
	require.NoError(t, o.Wait(context.Background()))
	assertAllCompleted(t, st)

	require.NotEmpty(t, snaps)
	for _, a := range snaps[0] {
		assert.Equal(t, model.AgentPending, a.Status)
	}
	for i := 1; i < len(snaps); i++ {
		for j := 1; j < 4; j++ {
			assert.GreaterOrEqual(t, rank(snaps[i][j].Status), rank(snaps[i-1][j].Status))
			assert.GreaterOrEqual(t, snaps[i][j].Progress, snaps[i-1][j].Progress)
		}
	}
}

type fakeSink struct {
	mu      sync.Mutex
	got     []model.ResearchResult
	err     error
	release chan struct{}
}

func (s *fakeSink) Persist(ctx context.Context, r model.ResearchResult) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, r)
	return s.err
}

func (s *fakeSink) persisted() []model.ResearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ResearchResult(nil), s.got...)
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []model.PipelineState
}

func (r *fakeRecorder) SaveRun(_ context.Context, st model.PipelineState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, st)
	return nil
}

func (r *fakeRecorder) saved() []model.PipelineState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.PipelineState(nil), r.runs...)
}

func TestRun_PersistsGatewayResearchOnly(t *testing.T) {
	sink := &fakeSink{}
	rec := &fakeRecorder{}

	o := newTestOrchestrator(okGateway(nil), WithSink(sink), WithStore(rec))
	o.Run(context.Background(), "Acme Unknown Co", nil)
	o.Run(context.Background(), "Stripe", nil)
	require.NoError(t, o.Wait(context.Background()))

	require.Len(t, sink.persisted(), 1)
	assert.Equal(t, "Acme Unknown Co", sink.persisted()[0].Company.Name)
	assert.Len(t, rec.saved(), 2)

	o2 := newTestOrchestrator(failingGateway(), WithSink(sink))
	o2.Run(context.Background(), "Globex", nil)
	require.NoError(t, o2.Wait(context.Background()))
	assert.Len(t, sink.persisted(), 1)
}

func TestRun_SinkNeverBlocksOrFailsRun(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down"), release: make(chan struct{})}
	o := newTestOrchestrator(okGateway(nil), WithSink(sink))

	st := o.Run(context.Background(), "Acme Unknown Co", nil)
	assert.Equal(t, model.PipelineCompleted, st.Status)
	assert.Empty(t, sink.persisted())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, o.Wait(ctx))

	close(sink.release)
	require.NoError(t, o.Wait(context.Background()))
	assert.Len(t, sink.persisted(), 1)
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	o := newTestOrchestrator(okGateway(nil))
	names := []string{"Stripe", "Notion", "Acme", "Globex", "Initech", "LocalBiz Software"}

	var wg sync.WaitGroup
	results := make([]model.PipelineState, len(names))
	for i, n := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.Run(context.Background(), n, nil)
		}()
	}
	wg.Wait()
	require.NoError(t, o.Wait(context.Background()))

	ids := map[string]bool{}
	for i, st := range results {
		assert.Equal(t, model.PipelineCompleted, st.Status, names[i])
		assert.Equal(t, names[i], st.Company)
		assertAllCompleted(t, st)
		assertScoreInRange(t, st.Score)
		ids[st.RunID] = true
	}
	assert.Len(t, ids, len(names))
}

func TestRun_CancelledContextFallsBack(t *testing.T) {
	gw := okGateway(nil)
	gw.research = func(string) (*gateway.ResearchReply, error) { return nil, context.Canceled }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(gw, WithPace(time.Hour))
	st := o.Run(ctx, "Acme Unknown Co", nil)
	require.NoError(t, o.Wait(context.Background()))

	assert.Equal(t, model.PipelineCompleted, st.Status)
	research, _ := st.Agent(model.AgentResearch)
	assert.Equal(t, model.SourceFallback, research.Source)
}

func TestWait_CoversInFlightRuns(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	gw := okGateway(nil)
	research := gw.research
	gw.research = func(company string) (*gateway.ResearchReply, error) {
		close(entered)
		<-release
		return research(company)
	}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(gw, WithStore(rec))

	done := make(chan model.PipelineState, 1)
	go func() { done <- o.Run(context.Background(), "Acme Unknown Co", nil) }()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, o.Wait(ctx))
	assert.Empty(t, rec.saved())

	close(release)
	require.NoError(t, o.Wait(context.Background()))
	assert.Len(t, rec.saved(), 1)
	assert.Equal(t, model.PipelineCompleted, (<-done).Status)
}
