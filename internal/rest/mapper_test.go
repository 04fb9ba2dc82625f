package rest

import "testing"

func TestMapperFirstMatchWins(t *testing.T) {
	m := NewMapper()
	first := func(*Request) (any, error) { return "first", nil }
	second := func(*Request) (any, error) { return "second", nil }
	if err := m.Add("/items/(\\d+)", map[string]Handler{"get": first}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("/items/(.*)", map[string]Handler{"get": second}); err != nil {
		t.Fatal(err)
	}

	h, args, _, found := m.Match("/items/42", "GET")
	if !found || h == nil {
		t.Fatal("expected a match")
	}
	if v, _ := h(nil); v != "first" {
		t.Fatalf("matched %v, want first pattern", v)
	}
	if len(args) != 1 || args[0] != "42" {
		t.Fatalf("args = %v", args)
	}
}

func TestMapperAnchored(t *testing.T) {
	m := NewMapper()
	h := func(*Request) (any, error) { return nil, nil }
	if err := m.Add("/ping", map[string]Handler{"get": h}); err != nil {
		t.Fatal(err)
	}

	if _, _, _, found := m.Match("/ping/extra", "GET"); found {
		t.Fatal("pattern should be anchored at both ends")
	}
	if _, _, _, found := m.Match("/prefix/ping", "GET"); found {
		t.Fatal("pattern should be anchored at the start")
	}
}

func TestMapperMethodMiss(t *testing.T) {
	m := NewMapper()
	h := func(*Request) (any, error) { return nil, nil }
	if err := m.Add("/users", map[string]Handler{"post": h, "get": h}); err != nil {
		t.Fatal(err)
	}

	handler, _, allow, found := m.Match("/users", "DELETE")
	if !found {
		t.Fatal("path should match even on method miss")
	}
	if handler != nil {
		t.Fatal("handler should be nil on method miss")
	}
	if len(allow) != 2 || allow[0] != "GET" || allow[1] != "POST" {
		t.Fatalf("allow = %v", allow)
	}
}

func TestMapperMethodMissStopsSearch(t *testing.T) {
	// A later pattern that supports the method must not be consulted once
	// an earlier pattern matched the path.
	m := NewMapper()
	h := func(*Request) (any, error) { return nil, nil }
	if err := m.Add("/users", map[string]Handler{"get": h}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("/(.*)", map[string]Handler{"delete": h}); err != nil {
		t.Fatal(err)
	}

	handler, _, _, found := m.Match("/users", "DELETE")
	if !found || handler != nil {
		t.Fatalf("found=%v handler=%v, want found with nil handler", found, handler)
	}
}

func TestMapperMultipleArgs(t *testing.T) {
	m := NewMapper()
	h := func(*Request) (any, error) { return nil, nil }
	if err := m.Add("/users/(\\d+)/posts/(\\d+)", map[string]Handler{"get": h}); err != nil {
		t.Fatal(err)
	}

	_, args, _, found := m.Match("/users/7/posts/9", "get")
	if !found {
		t.Fatal("expected match")
	}
	if len(args) != 2 || args[0] != "7" || args[1] != "9" {
		t.Fatalf("args = %v", args)
	}
}

func TestMapperBadPattern(t *testing.T) {
	m := NewMapper()
	if err := m.Add("/users/(", nil); err == nil {
		t.Fatal("expected invalid pattern to fail")
	}
}
