package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

// whoamiResponse mirrors the /whoami JSON body.
type whoamiResponse struct {
	Anonymous   bool     `json:"anonymous"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

func getWhoami(t *testing.T, url string, setAuth func(*http.Request)) (*http.Response, whoamiResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url+"/whoami", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if setAuth != nil {
		setAuth(req)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var body whoamiResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp, body
}

func TestGateway_AnonymousRequestPassesThrough(t *testing.T) {
	srv, err := startGateway(false)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp, body := getWhoami(t, srv.URL, nil)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !body.Anonymous {
		t.Errorf("body = %+v, want anonymous", body)
	}
}

func TestGateway_ValidCredentials(t *testing.T) {
	srv, err := startGateway(false)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp, body := getWhoami(t, srv.URL, func(r *http.Request) {
		r.SetBasicAuth("rod", "koala")
	})

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body.Username != "rod" {
		t.Errorf("username = %q, want %q", body.Username, "rod")
	}
	if len(body.Authorities) != 2 {
		t.Errorf("authorities = %v, want ROLE_ONE and ROLE_TWO", body.Authorities)
	}
}

func TestGateway_WrongPasswordIsChallenged(t *testing.T) {
	srv, err := startGateway(false)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp, _ := getWhoami(t, srv.URL, func(r *http.Request) {
		r.SetBasicAuth("rod", "WRONG_PASSWORD")
	})

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != `Basic realm="einlass-test"` {
		t.Errorf("WWW-Authenticate = %q, want %q", got, `Basic realm="einlass-test"`)
	}
}

func TestGateway_WrongPasswordIgnoredWhenConfigured(t *testing.T) {
	srv, err := startGateway(true)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp, body := getWhoami(t, srv.URL, func(r *http.Request) {
		r.SetBasicAuth("rod", "WRONG_PASSWORD")
	})

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 (failure ignored)", resp.StatusCode)
	}
	if !body.Anonymous {
		t.Errorf("body = %+v, want anonymous despite failed attempt", body)
	}
}

// Sequential requests through the same server must be independent: a
// success does not make a later failing request look authenticated.
func TestGateway_SequentialRequestsAreIndependent(t *testing.T) {
	srv, err := startGateway(false)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp, body := getWhoami(t, srv.URL, func(r *http.Request) {
		r.SetBasicAuth("rod", "koala")
	})
	if resp.StatusCode != http.StatusOK || body.Username != "rod" {
		t.Fatalf("first request: status=%d body=%+v, want authenticated rod", resp.StatusCode, body)
	}

	resp, _ = getWhoami(t, srv.URL, func(r *http.Request) {
		r.SetBasicAuth("otherUser", "WRONG_PASSWORD")
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("second request status = %d, want 401", resp.StatusCode)
	}
}

func TestGateway_HealthzIsPublic(t *testing.T) {
	srv, err := startGateway(false)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
