package policy

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	list, err := Load("testdata/lists.toml")
	require.NoError(t, err)
	return NewEngine(list)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestEngine_CheckDestination(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		url      string
		blocked  bool
		category Category
		field    MatchField
	}{
		{name: "clean URL", url: "https://example.com/page", blocked: false},
		{name: "host match by default", url: "https://bit.ly/abc", blocked: true, category: Shortener, field: Host},
		{name: "subdomain host match", url: "https://www.bit.ly/abc", blocked: true, category: Shortener, field: Host},
		{name: "host is lower-cased", url: "https://BIT.LY/abc", blocked: true, category: Shortener, field: Host},
		{name: "explicit host field", url: "https://phish.000webhostapp.com/", blocked: true, category: Freehost, field: Host},
		{name: "port match", url: "http://example.com:8081/", blocked: true, category: Spam, field: Port},
		{name: "other port", url: "http://example.com:8080/", blocked: false},
		{name: "path match", url: "https://example.com/wp-login.php", blocked: true, category: Spam, field: Path},
		{name: "query match", url: "https://example.com/?ref=CASINO", blocked: true, category: Spam, field: Query},
		{name: "authority with userinfo", url: "https://user@example.com/", blocked: true, category: Spam, field: Authority},
		{name: "first match wins", url: "https://example.com/go?to=tinyurl", blocked: true, category: Shortener, field: FullURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := mustParseURL(t, tt.url)
			err := engine.CheckDestination(u)
			if !tt.blocked {
				assert.NoError(t, err)
				return
			}

			var violation *Violation
			require.True(t, errors.As(err, &violation), "expected *Violation, got %v", err)
			assert.Equal(t, tt.category, violation.Category)
			assert.Equal(t, tt.field, violation.Field)
			assert.Equal(t, u.String(), violation.Value)
		})
	}
}

func TestEngine_CheckDestination_AbsentComponentSkipped(t *testing.T) {
	portField := Port
	hostField := Host
	list := &List{URLs: URLLists{Blocklist: []URLBlockEntry{
		{Pattern: compile(t, ".*"), Category: Spam, Matching: &portField},
		{Pattern: compile(t, "example"), Category: Freehost, Matching: &hostField},
	}}}
	engine := NewEngine(list)

	// Порта нет: первая запись пропускается, срабатывает вторая
	err := engine.CheckDestination(mustParseURL(t, "https://example.com/"))
	var violation *Violation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, Freehost, violation.Category)

	// Порт есть: срабатывает первая запись
	err = engine.CheckDestination(mustParseURL(t, "https://example.com:444/"))
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, Spam, violation.Category)
}

func TestEngine_CheckDestination_QueryAbsent(t *testing.T) {
	queryField := Query
	engine := NewEngine(&List{URLs: URLLists{Blocklist: []URLBlockEntry{
		{Pattern: compile(t, "^$"), Category: Spam, Matching: &queryField},
	}}})

	assert.NoError(t, engine.CheckDestination(mustParseURL(t, "https://example.com/")))
	assert.Error(t, engine.CheckDestination(mustParseURL(t, "https://example.com/?")))
}

func TestEngine_CheckName(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name    string
		input   string
		blocked bool
	}{
		{"clean name", "my-link", false},
		{"substring match", "free-paypal-login", true},
		{"case insensitive", "PayPal", true},
		{"anchored match", "admin", true},
		{"anchored miss", "administrator", false},
		{"empty name", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.CheckName(tt.input)
			if !tt.blocked {
				assert.NoError(t, err)
				return
			}
			var violation *Violation
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, BlockedName, violation.Category)
			assert.Equal(t, tt.input, violation.Value)
			assert.Equal(t, "shortcut name blocklisted: "+tt.input, err.Error())
		})
	}
}

func TestEngine_IsAllowlisted(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name        string
		shortName   string
		destination string
		expected    bool
	}{
		{"neither", "promo", "https://example.com/", false},
		{"destination allowed", "promo", "https://docs.example.org/guide", true},
		{"destination allowed, upper case", "promo", "HTTPS://DOCS.EXAMPLE.ORG/guide", true},
		{"name allowed", "team-news", "https://example.com/", true},
		{"name allowed, upper case", "TEAM-news", "https://example.com/", true},
		{"both allowed", "team-docs", "https://docs.example.org/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.IsAllowlisted(tt.shortName, tt.destination))
		})
	}
}

func TestEngine_EmptyList(t *testing.T) {
	engine := NewEngine(nil)

	assert.False(t, engine.IsAllowlisted("a", "https://example.com"))
	assert.NoError(t, engine.CheckName("anything"))
	assert.NoError(t, engine.CheckDestination(mustParseURL(t, "https://bit.ly/x")))
	assert.NoError(t, engine.CheckDestination(nil))
}

func TestViolation_Error(t *testing.T) {
	v := &Violation{Category: Spam, Field: Query, Value: "https://example.com/?a=b"}
	assert.Equal(t, "URL blocklisted [query]: https://example.com/?a=b", v.Error())
}

func TestComponent(t *testing.T) {
	u := mustParseURL(t, "https://user:pw@Example.com:8443/a/b?x=1#frag")

	tests := []struct {
		field    MatchField
		expected string
		ok       bool
	}{
		{FullURI, "https://user:pw@Example.com:8443/a/b?x=1#frag", true},
		{Host, "Example.com", true},
		{Port, "8443", true},
		{Authority, "user:pw@Example.com:8443", true},
		{Path, "/a/b", true},
		{Query, "x=1", true},
		{MatchField("unknown"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			value, ok := Component(u, tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, value)
		})
	}

	bare := mustParseURL(t, "https://example.com")
	path, ok := Component(bare, Path)
	assert.True(t, ok)
	assert.Equal(t, "/", path)
}

func compile(t *testing.T, expr string) Pattern {
	t.Helper()
	var p Pattern
	require.NoError(t, p.UnmarshalText([]byte(expr)))
	return p
}
