package e2e

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"locallm/internal/manager"
	"locallm/pkg/types"
)

func TestE2E_SetupAskStatus(t *testing.T) {
	engine := &fakeOllama{reply: "Go is a statically typed language. It compiles fast."}
	es := httptest.NewServer(engine)
	defer es.Close()
	srv, _ := newStack(t, es.URL)

	// Nothing installed yet: /readyz is 503 and /diag reports no models.
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before setup = %d", resp.StatusCode)
	}
	_, body := httpGet(t, srv.URL+"/diag")
	var d types.DiagnosticResponse
	decode(t, body, &d)
	if d.Message != manager.DiagNoModels {
		t.Fatalf("/diag = %q", d.Message)
	}

	// Setup adopts the running engine and pulls the first candidate.
	resp, body := httpPostJSON(t, srv.URL+"/setup", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/setup status=%d body=%s", resp.StatusCode, body)
	}
	var s types.SetupResponse
	decode(t, body, &s)
	if !s.OK || s.Model != "phi3.5:latest" {
		t.Fatalf("/setup = %+v", s)
	}
	if pulls := engine.pulled(); len(pulls) != 1 || pulls[0] != "phi3.5:latest" {
		t.Fatalf("pulls = %v", pulls)
	}
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz after setup = %d", resp.StatusCode)
	}

	// Ask with a document.
	resp, body = httpPostJSON(t, srv.URL+"/ask", `{"prompt":"What is Go?","context":"Go was designed at Google."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/ask status=%d body=%s", resp.StatusCode, body)
	}
	var env types.ResponseEnvelope
	decode(t, body, &env)
	if env.Outcome != types.OutcomeOK || env.Text != engine.reply || env.Model != "phi3.5:latest" {
		t.Fatalf("/ask = %+v", env)
	}
	if p := engine.lastPrompt(); !strings.Contains(p, "Go was designed at Google.") || !strings.Contains(p, "What is Go?") {
		t.Fatalf("prompt sent to engine:\n%s", p)
	}

	_, body = httpGet(t, srv.URL+"/models")
	var m types.ModelsResponse
	decode(t, body, &m)
	if m.Selected != "phi3.5:latest" || m.Error != "" {
		t.Fatalf("/models = %+v", m)
	}
	found := false
	for _, md := range m.Models {
		if md.ID == "phi3.5:latest" {
			found = md.Downloaded
		}
	}
	if !found {
		t.Fatalf("/models does not list phi3.5:latest as downloaded: %+v", m.Models)
	}

	_, body = httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	decode(t, body, &st)
	if st.State != "ready" || st.EngineState != "running" || !st.WarmedUp || st.Threads != 4 || st.EnginePID != 0 {
		t.Fatalf("/status = %+v", st)
	}

	_, body = httpGet(t, srv.URL+"/diag")
	decode(t, body, &d)
	if d.Message != manager.DiagOK {
		t.Fatalf("/diag after setup = %q", d.Message)
	}

	// The engine was adopted, so stop leaves it alone.
	if resp, _ := httpPostJSON(t, srv.URL+"/stop", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("/stop = %d", resp.StatusCode)
	}
	if resp, _ := httpGet(t, es.URL+"/api/tags"); resp.StatusCode != http.StatusOK {
		t.Fatalf("adopted engine should still answer, got %d", resp.StatusCode)
	}
}

func TestE2E_UsesInstalledModelWithoutPull(t *testing.T) {
	engine := &fakeOllama{installed: []string{"phi3.5:latest"}, reply: "Hello."}
	es := httptest.NewServer(engine)
	defer es.Close()
	srv, _ := newStack(t, es.URL)

	resp, body := httpPostJSON(t, srv.URL+"/setup", "")
	var s types.SetupResponse
	decode(t, body, &s)
	if resp.StatusCode != http.StatusOK || !s.OK {
		t.Fatalf("/setup = %d %s", resp.StatusCode, body)
	}
	if pulls := engine.pulled(); len(pulls) != 0 {
		t.Fatalf("unexpected pulls: %v", pulls)
	}
}

func TestE2E_EngineDown(t *testing.T) {
	es := httptest.NewServer(http.NotFoundHandler())
	url := es.URL
	es.Close()
	srv, _ := newStack(t, url)

	_, body := httpGet(t, srv.URL+"/diag")
	var d types.DiagnosticResponse
	decode(t, body, &d)
	if d.Message != manager.DiagEngineDown {
		t.Fatalf("/diag = %q", d.Message)
	}

	_, body = httpGet(t, srv.URL+"/models")
	var m types.ModelsResponse
	decode(t, body, &m)
	if m.Error == "" || len(m.Models) == 0 {
		t.Fatalf("expected registry fallback with an error, got %+v", m)
	}
	for _, md := range m.Models {
		if md.Downloaded {
			t.Fatalf("nothing can be downloaded when the engine is down: %+v", md)
		}
	}
}
