package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/radieske/bet-tracker/internal/gemini"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/settlement"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantNil   bool
		wantSt    ledger.Status
		wantScore string
	}{
		{"plain", `{"status":"WON","score":"2-1","reasoning":"ok"}`, false, ledger.StatusWon, "2-1"},
		{"wrapped", "```json\n{\"status\":\"LOST\",\"score\":\"0-3\"}\n```", false, ledger.StatusLost, "0-3"},
		{"unknown status", `{"status":"CANCELLED","score":"-"}`, false, ledger.StatusPending, "-"},
		{"numeric score", `{"status":"VOID","score":0}`, false, ledger.StatusVoid, "0"},
		{"malformed", `{"status": WON`, true, "", ""},
		{"empty", ``, true, "", ""},
		{"prose", `I could not find this match.`, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.in)
			if tt.wantNil {
				if v != nil {
					t.Fatalf("expected nil, got %+v", v)
				}
				return
			}
			if v == nil || v.Status != tt.wantSt || v.Score != tt.wantScore {
				t.Fatalf("got %+v", v)
			}
		})
	}
}

type fakeOracle struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	fn       func(Request) (*settlement.Verdict, error)
}

func (f *fakeOracle) Verify(_ context.Context, req Request) (*settlement.Verdict, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return f.fn(req)
}

func TestVerifyBatchIndependentOutcomes(t *testing.T) {
	o := &fakeOracle{fn: func(r Request) (*settlement.Verdict, error) {
		switch r.BetID {
		case "won":
			return &settlement.Verdict{Status: ledger.StatusWon, Score: "1-0"}, nil
		case "absent":
			return nil, nil
		default:
			return nil, communication(errors.New("timeout"))
		}
	}}
	recs := []ledger.BetRecord{{ID: "won"}, {ID: "absent"}, {ID: "fail"}}

	res := VerifyBatch(context.Background(), o, recs, 0)
	if len(res) != 3 {
		t.Fatalf("len = %d", len(res))
	}
	if res[0].ID != "won" || res[0].Verdict == nil || res[0].Verdict.Status != ledger.StatusWon {
		t.Fatalf("won: %+v", res[0])
	}
	if !res[1].Inconclusive() {
		t.Fatalf("absent: %+v", res[1])
	}
	if !errors.Is(res[2].Err, ErrCommunication) {
		t.Fatalf("fail: %+v", res[2])
	}
	if o.maxSeen.Load() < 2 {
		t.Fatalf("requests were serialized (max in flight %d)", o.maxSeen.Load())
	}
}

func TestVerifyBatchKeepsEveryPosition(t *testing.T) {
	o := &fakeOracle{fn: func(r Request) (*settlement.Verdict, error) {
		return &settlement.Verdict{Status: ledger.StatusWon, Score: r.HomeTeam}, nil
	}}
	recs := []ledger.BetRecord{
		{ID: "dup", HomeTeam: "first"},
		{ID: "dup", HomeTeam: "second"},
		{ID: "other", HomeTeam: "third"},
	}

	res := VerifyBatch(context.Background(), o, recs, 0)
	for i, want := range []string{"first", "second", "third"} {
		if res[i].ID != recs[i].ID || res[i].Verdict == nil || res[i].Verdict.Score != want {
			t.Fatalf("res[%d] = %+v, want score %s", i, res[i], want)
		}
	}
}

func TestVerifyEachRespectsLimit(t *testing.T) {
	o := &fakeOracle{fn: func(Request) (*settlement.Verdict, error) { return nil, nil }}
	var recs []ledger.BetRecord
	for _, id := range strings.Split("a b c d e f g h", " ") {
		recs = append(recs, ledger.BetRecord{ID: id})
	}
	calls := 0
	VerifyEach(context.Background(), o, recs, 2, func(Result) { calls++ })
	if calls != len(recs) {
		t.Fatalf("apply called %d times", calls)
	}
	if o.maxSeen.Load() > 2 {
		t.Fatalf("limit exceeded: %d", o.maxSeen.Load())
	}
}

func TestSupplierClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oracle/verify" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body := string(b)
		switch {
		case strings.Contains(body, `"homeTeam":"Won FC"`):
			_, _ = w.Write([]byte(`{"status":"WON","score":"3-1","reasoning":"comfortable"}`))
		case strings.Contains(body, `"homeTeam":"Later FC"`):
			w.WriteHeader(http.StatusNoContent)
		case strings.Contains(body, `"homeTeam":"Garbage FC"`):
			_, _ = w.Write([]byte(`<html>oops</html>`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewSupplierClient(srv.URL + "/")
	ctx := context.Background()

	v, err := c.Verify(ctx, Request{HomeTeam: "Won FC"})
	if err != nil || v == nil || v.Status != ledger.StatusWon || v.Score != "3-1" {
		t.Fatalf("won: %+v %v", v, err)
	}
	if v, err := c.Verify(ctx, Request{HomeTeam: "Later FC"}); v != nil || err != nil {
		t.Fatalf("no content should be inconclusive: %+v %v", v, err)
	}
	if v, err := c.Verify(ctx, Request{HomeTeam: "Garbage FC"}); v != nil || err != nil {
		t.Fatalf("malformed should be inconclusive: %+v %v", v, err)
	}
	if _, err := c.Verify(ctx, Request{HomeTeam: "Broken FC"}); !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
}

type fakeGen struct {
	resp *gemini.Response
	err  error
	last gemini.Request
}

func (f *fakeGen) Generate(_ context.Context, in gemini.Request) (*gemini.Response, error) {
	f.last = in
	return f.resp, f.err
}

func TestGeminiVerifier(t *testing.T) {
	g := &fakeGen{resp: &gemini.Response{Text: `Result: {"status":"LOST","score":"0-2","reasoning":"away win"}`}}
	v, err := NewGeminiVerifier(g).Verify(context.Background(), Request{HomeTeam: "Leeds", AwayTeam: "Hull", Market: "Home Win"})
	if err != nil || v == nil || v.Status != ledger.StatusLost {
		t.Fatalf("got %+v %v", v, err)
	}
	if !g.last.Search || !strings.Contains(g.last.Prompt, "Leeds vs Hull") {
		t.Fatalf("unexpected request: %+v", g.last)
	}

	g.err = errors.New("gemini http 503")
	if _, err := NewGeminiVerifier(g).Verify(context.Background(), Request{}); !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
}

func TestGeminiVerifierWithoutKeyIsInconclusive(t *testing.T) {
	g := &fakeGen{err: fmt.Errorf("generate: %w", gemini.ErrNoAPIKey)}
	v, err := NewGeminiVerifier(g).Verify(context.Background(), Request{HomeTeam: "Leeds", AwayTeam: "Hull"})
	if v != nil || err != nil {
		t.Fatalf("expected inconclusive, got %+v %v", v, err)
	}
}
