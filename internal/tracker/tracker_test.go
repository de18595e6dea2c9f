package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/radieske/bet-tracker/internal/analyst"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/oracle"
	"github.com/radieske/bet-tracker/internal/settlement"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, v []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = v
	return nil
}

type stubOracle struct {
	byHome map[string]func() (*settlement.Verdict, error)
}

func (s *stubOracle) Verify(_ context.Context, req oracle.Request) (*settlement.Verdict, error) {
	if fn, ok := s.byHome[req.HomeTeam]; ok {
		return fn()
	}
	return nil, nil
}

type recNotifier struct {
	mu   sync.Mutex
	msgs []events.Notification
}

func (n *recNotifier) Notify(_ context.Context, msg, typ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, events.Notification{Message: msg, Type: typ})
	return nil
}

func (n *recNotifier) has(sub, typ string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.msgs {
		if strings.Contains(m.Message, sub) && m.Type == typ {
			return true
		}
	}
	return false
}

type recPublisher struct {
	mu      sync.Mutex
	settled []events.BetSettled
	changed []events.LedgerChanged
}

func (p *recPublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled = append(p.settled, e)
	return nil
}

func (p *recPublisher) PublishLedgerChanged(_ context.Context, e events.LedgerChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, e)
	return nil
}

type fixture struct {
	t     *Tracker
	kv    *memKV
	orc   *stubOracle
	notes *recNotifier
	pub   *recPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := &memKV{data: map[string][]byte{}}
	store := ledger.NewStore(kv, ledger.DefaultKey, nil)
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	orc := &stubOracle{byHome: map[string]func() (*settlement.Verdict, error){}}
	f := &fixture{kv: kv, orc: orc, notes: &recNotifier{}, pub: &recPublisher{}}
	f.t = New(store, orc, nil)
	f.t.Notify = f.notes
	f.t.Events = f.pub

	n := 0
	f.t.NewID = func() string { n++; return "bet-" + string(rune('a'+n-1)) }
	clock := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	f.t.Now = func() time.Time { clock = clock.Add(time.Minute); return clock }
	return f
}

func (f *fixture) track(t *testing.T, home string) ledger.BetRecord {
	t.Helper()
	rec, err := f.t.Track(context.Background(), Input{HomeTeam: home, AwayTeam: "Away", Odds: 2, Stake: 1})
	if err != nil {
		t.Fatalf("track %s: %v", home, err)
	}
	return rec
}

func TestTrackDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	rec := f.track(t, "Leeds")
	if rec.League != DefaultLeague || rec.Market != DefaultMarket || rec.Status != ledger.StatusPending {
		t.Fatalf("defaults not applied: %+v", rec)
	}
	if rec.MatchDate != "2024-03-02" {
		t.Fatalf("matchDate = %q", rec.MatchDate)
	}
	if !f.notes.has("Tracked: Leeds vs Away", events.NotifySuccess) {
		t.Fatalf("missing notification: %+v", f.notes.msgs)
	}

	tests := []struct {
		name string
		in   Input
	}{
		{"no teams", Input{Odds: 2, Stake: 1}},
		{"zero stake", Input{HomeTeam: "A", AwayTeam: "B", Odds: 2}},
		{"negative odds", Input{HomeTeam: "A", AwayTeam: "B", Odds: -1, Stake: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.t.Track(context.Background(), tt.in); !ledger.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if f.t.Store.Len() != 1 {
		t.Fatalf("rejected input reached the ledger: %d", f.t.Store.Len())
	}
}

func TestImportAccumulator(t *testing.T) {
	f := newFixture(t)
	acc := analyst.Accumulator{
		Date:      "2024-03-02",
		Reasoning: "solid favourites",
		Selections: []analyst.BetSelection{
			{HomeTeam: "Inter", AwayTeam: "Genoa", League: "Serie A", Market: "Home Win", Odds: 1.4},
			{HomeTeam: "Ajax", AwayTeam: "PSV", League: "Eredivisie", Market: "BTTS", Odds: 1.7},
		},
	}
	recs, err := f.t.ImportAccumulator(context.Background(), acc)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d", len(recs))
	}
	for _, r := range recs {
		if r.Stake != 1 || r.Status != ledger.StatusPending || r.MatchDate != "2024-03-02" {
			t.Fatalf("bad leg: %+v", r)
		}
		if r.Analysis != "King Maokoto Acca. solid favourites" {
			t.Fatalf("analysis = %q", r.Analysis)
		}
	}
	if !f.notes.has("Successfully added 2 bets", events.NotifySuccess) {
		t.Fatal("missing import notification")
	}

	acc.Selections = append(acc.Selections, analyst.BetSelection{HomeTeam: "X", AwayTeam: "Y", Odds: 0})
	if _, err := f.t.ImportAccumulator(context.Background(), acc); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.t.Store.Len() != 2 {
		t.Fatalf("partial import: %d", f.t.Store.Len())
	}
}

func TestSetStatusPublishesSettlement(t *testing.T) {
	f := newFixture(t)
	rec := f.track(t, "Leeds")

	got, err := f.t.SetStatus(context.Background(), rec.ID, "won")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != ledger.StatusWon {
		t.Fatalf("status = %s", got.Status)
	}
	if len(f.pub.settled) != 1 || f.pub.settled[0].Source != SourceManual || f.pub.settled[0].Profit != 1 {
		t.Fatalf("settled events = %+v", f.pub.settled)
	}

	// desfazer a liquidação também vai para o histórico
	if _, err := f.t.SetStatus(context.Background(), rec.ID, "PENDING"); err != nil {
		t.Fatal(err)
	}
	if len(f.pub.settled) != 2 {
		t.Fatalf("settled events = %+v", f.pub.settled)
	}
	if e := f.pub.settled[1]; e.OldStatus != "WON" || e.NewStatus != "PENDING" || e.Profit != 0 {
		t.Fatalf("reopen event = %+v", e)
	}
	// PENDING => PENDING não gera evento
	if _, err := f.t.SetStatus(context.Background(), rec.ID, "pending"); err != nil {
		t.Fatal(err)
	}
	if len(f.pub.settled) != 2 {
		t.Fatalf("unexpected event for unchanged status: %+v", f.pub.settled)
	}

	if _, err := f.t.SetStatus(context.Background(), rec.ID, "CANCELLED"); !ledger.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.t.SetStatus(context.Background(), "nope", "WON"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	rec := f.track(t, "Leeds")
	if err := f.t.Delete(context.Background(), rec.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.t.Delete(context.Background(), rec.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if s := f.t.Stats(); s.TotalBets != 0 {
		t.Fatalf("stats after delete: %+v", s)
	}
}

func TestAutoVerifyOutcomes(t *testing.T) {
	f := newFixture(t)
	won := f.track(t, "Won FC")
	live := f.track(t, "Live FC")
	none := f.track(t, "Nobody FC")
	down := f.track(t, "Down FC")

	f.orc.byHome["Won FC"] = func() (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusWon, Score: "2-0", Reasoning: "clean sheet"}, nil
	}
	f.orc.byHome["Live FC"] = func() (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusPending, Score: "1-0 (35')", Reasoning: "in play"}, nil
	}
	f.orc.byHome["Down FC"] = func() (*settlement.Verdict, error) { return nil, errors.New("dial tcp: refused") }

	ctx := context.Background()

	res, err := f.t.AutoVerify(ctx, won.ID)
	if err != nil || res.Outcome != OutcomeChanged {
		t.Fatalf("won: %+v %v", res, err)
	}
	if res.Record.ResultScore != "2-0" || !strings.HasSuffix(res.Record.Analysis, "[AI Verified]: clean sheet") {
		t.Fatalf("merge not applied: %+v", res.Record)
	}
	if !f.notes.has("Update: Won FC vs Away is WON (2-0)", events.NotifySuccess) {
		t.Fatal("missing update notification")
	}

	res, err = f.t.AutoVerify(ctx, live.ID)
	if err != nil || res.Outcome != OutcomeUnchanged || res.Record.ResultScore != "" {
		t.Fatalf("live: %+v %v", res, err)
	}

	res, err = f.t.AutoVerify(ctx, none.ID)
	if err != nil || res.Outcome != OutcomeInconclusive {
		t.Fatalf("inconclusive: %+v %v", res, err)
	}

	before, _ := f.t.Store.Get(down.ID)
	if _, err := f.t.AutoVerify(ctx, down.ID); !errors.Is(err, oracle.ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
	after, _ := f.t.Store.Get(down.ID)
	if after != before {
		t.Fatalf("ledger changed on communication error: %+v", after)
	}

	if _, err := f.t.AutoVerify(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.pub.settled) != 1 || f.pub.settled[0].BetID != won.ID {
		t.Fatalf("settled events = %+v", f.pub.settled)
	}
}

func TestAutoVerifyOverridesManualStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.track(t, "Leeds")
	if _, err := f.t.SetStatus(context.Background(), rec.ID, "LOST"); err != nil {
		t.Fatal(err)
	}
	f.orc.byHome["Leeds"] = func() (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusWon, Score: "1-0"}, nil
	}
	res, err := f.t.AutoVerify(context.Background(), rec.ID)
	if err != nil || res.Record.Status != ledger.StatusWon {
		t.Fatalf("got %+v %v", res, err)
	}
}

func TestCheckAllPendingIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	a := f.track(t, "Won FC")
	b := f.track(t, "Nobody FC")
	c := f.track(t, "Down FC")
	d := f.track(t, "Live FC")
	settledBefore := f.track(t, "Old FC")
	if _, err := f.t.SetStatus(context.Background(), settledBefore.ID, "VOID"); err != nil {
		t.Fatal(err)
	}

	f.orc.byHome["Won FC"] = func() (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusWon, Score: "3-1", Reasoning: "ok"}, nil
	}
	f.orc.byHome["Down FC"] = func() (*settlement.Verdict, error) { return nil, oracle.ErrCommunication }
	f.orc.byHome["Live FC"] = func() (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusPending, Score: "0-0 (12')"}, nil
	}
	f.orc.byHome["Old FC"] = func() (*settlement.Verdict, error) {
		t.Error("settled bet must not be re-checked")
		return nil, nil
	}

	rep := f.t.CheckAllPending(context.Background())
	want := Report{Checked: 4, Updated: 1, Inconclusive: 2, Failed: 1}
	if rep != want {
		t.Fatalf("report = %+v, want %+v", rep, want)
	}

	got, _ := f.t.Store.Get(a.ID)
	if got.Status != ledger.StatusWon || !strings.HasSuffix(got.Analysis, "[Auto-Verified]: ok") {
		t.Fatalf("won not applied: %+v", got)
	}
	for _, id := range []string{b.ID, c.ID, d.ID} {
		r, _ := f.t.Store.Get(id)
		if r.Status != ledger.StatusPending || r.Analysis != "" || r.ResultScore != "" {
			t.Fatalf("%s mutated: %+v", id, r)
		}
	}
	if !f.notes.has("Sync Complete: 1 bets updated!", events.NotifySuccess) {
		t.Fatal("missing sync notification")
	}
	if !f.notes.has("Error checking some matches.", events.NotifyError) {
		t.Fatal("missing failure notification")
	}
}

func TestCheckAllPendingNothingToDo(t *testing.T) {
	f := newFixture(t)
	if rep := f.t.CheckAllPending(context.Background()); rep != (Report{}) {
		t.Fatalf("report = %+v", rep)
	}
	if !f.notes.has("No pending bets to check.", events.NotifyInfo) {
		t.Fatal("missing notification")
	}
}

func TestDashboardReflectsLedger(t *testing.T) {
	f := newFixture(t)
	rec := f.track(t, "Leeds")
	if _, err := f.t.SetStatus(context.Background(), rec.ID, "WON"); err != nil {
		t.Fatal(err)
	}
	d := f.t.Dashboard()
	if d.Summary.Wins != 1 || d.Summary.Profit != 1 || len(d.ProfitCurve) != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
}

func TestRunSchedulerSettlesPending(t *testing.T) {
	f := newFixture(t)
	rec := f.track(t, "Napoli")
	f.orc.byHome["Napoli"] = func() (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusWon, Score: "2-0"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.t.RunScheduler(ctx, 5*time.Millisecond)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := f.t.Store.Get(rec.ID)
		if got.Status == ledger.StatusWon {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			<-done
			t.Fatalf("scheduler never settled the bet: %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestRunSchedulerDisabled(t *testing.T) {
	f := newFixture(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.t.RunScheduler(context.Background(), 0)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero interval should return immediately")
	}
}
