package httpx

import "testing"

func TestParseQueryRepeatedKeys(t *testing.T) {
	v, err := ParseQuery("a=1&b=2&a=3")
	if err != nil {
		t.Fatal(err)
	}
	if got := v["a"]; len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("got %#v", v)
	}
	if v.Get("b") != "2" {
		t.Fatalf("got %#v", v)
	}
}

func TestParseQueryEmpty(t *testing.T) {
	v, err := ParseQuery("")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 0 {
		t.Fatalf("expected empty, got %#v", v)
	}
}

func TestParseQueryPercentDecoded(t *testing.T) {
	v, err := ParseQuery("q=a%20b")
	if err != nil {
		t.Fatal(err)
	}
	if v.Get("q") != "a b" {
		t.Fatalf("got %q", v.Get("q"))
	}
}

func TestURLTargetWithQuery(t *testing.T) {
	u, err := ParseRequestURI("/a/b?x=1")
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Target(); got != "/a/b?x=1" {
		t.Fatalf("got %q", got)
	}
}

func TestURLHostPortDefaults(t *testing.T) {
	u := &URL{Scheme: "https", Host: "example.com"}
	host, port, err := u.HostPort()
	if err != nil {
		t.Fatal(err)
	}
	if host != "example.com" || port != 443 {
		t.Fatalf("got %q %d", host, port)
	}

	u2 := &URL{Scheme: "http", Host: "example.com:8080"}
	host2, port2, err := u2.HostPort()
	if err != nil {
		t.Fatal(err)
	}
	if host2 != "example.com" || port2 != 8080 {
		t.Fatalf("got %q %d", host2, port2)
	}
}
