package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestFromContext_Defaults(t *testing.T) {
	c, _ := newContext("/")

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	c, _ := newContext("/?limit=50&offset=10")

	p := FromContext(c)

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	c, _ := newContext("/?limit=500")

	p := FromContext(c)

	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_InvalidLimit(t *testing.T) {
	for _, q := range []string{"/?limit=abc", "/?limit=0", "/?limit=-3"} {
		c, _ := newContext(q)
		if p := FromContext(c); p.Limit != DefaultLimit {
			t.Errorf("%s: expected default limit, got %d", q, p.Limit)
		}
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	c, _ := newContext("/?offset=-5")

	p := FromContext(c)

	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContextWithDefault(t *testing.T) {
	c, _ := newContext("/")
	if p := FromContextWithDefault(c, 5); p.Limit != 5 {
		t.Errorf("expected limit 5, got %d", p.Limit)
	}
	if p := FromContextWithDefault(c, 1000); p.Limit != DefaultLimit {
		t.Errorf("expected out-of-range default to fall back to %d, got %d", DefaultLimit, p.Limit)
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		offset, limit, total int
		want                 bool
	}{
		{0, 20, 50, true},
		{40, 20, 50, false},
		{0, 20, 20, false},
		{0, 20, 0, false},
	}
	for _, tt := range tests {
		p := Params{Limit: tt.limit, Offset: tt.offset}
		if got := p.HasNext(tt.total); got != tt.want {
			t.Errorf("HasNext(offset=%d, limit=%d, total=%d) = %v, want %v",
				tt.offset, tt.limit, tt.total, got, tt.want)
		}
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	if got := (Params{Limit: 20, Offset: 10}).PreviousOffset(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := (Params{Limit: 20, Offset: 60}).PreviousOffset(); got != 40 {
		t.Errorf("expected 40, got %d", got)
	}
}

func TestParams_Links(t *testing.T) {
	p := Params{Limit: 10, Offset: 10}
	got := p.Links("/scores/history", 35)
	want := `</scores/history?limit=10&offset=20>; rel="next", </scores/history?limit=10&offset=0>; rel="prev"`
	if got != want {
		t.Errorf("unexpected links:\n got %s\nwant %s", got, want)
	}

	if got := (Params{Limit: 10}).Links("/scores/history", 5); got != "" {
		t.Errorf("expected no links for a single page, got %q", got)
	}
}

func TestWriteHeaders(t *testing.T) {
	c, rec := newContext("/scores/history?limit=2")
	p := FromContext(c)

	p.WriteHeaders(c, 3)

	if got := rec.Header().Get(TotalCountHeader); got != "3" {
		t.Errorf("expected total 3, got %q", got)
	}
	if got := rec.Header().Get(LinkHeader); got != `</scores/history?limit=2&offset=2>; rel="next"` {
		t.Errorf("unexpected Link header %q", got)
	}
}
