package httpapi

import "net/http"

// handleDemo serves a minimal JSON console for poking the API by hand.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	html := `<!doctype html>
<html lang="fr">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>car-import-advisor — demo</title>
  <style>
    body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif; margin: 16px; }
    textarea { width: 100%; min-height: 200px; font-family: ui-monospace, Menlo, Consolas, monospace; }
    button { padding: 10px 14px; font-size: 16px; margin-right: 8px; }
    pre { white-space: pre-wrap; word-wrap: break-word; background: #f6f6f6; padding: 12px; border-radius: 10px; }
    .card { border: 1px solid #e6e6e6; border-radius: 12px; padding: 12px; margin-top: 12px; }
  </style>
</head>
<body>
  <h2>car-import-advisor — demo</h2>
  <div class="card">
    <div><b>Requête (JSON)</b></div>
    <textarea id="payload"></textarea>
    <div style="margin-top:10px;">
      <button data-path="/recommendations">Recommandations</button>
      <button data-path="/tax/compare">Comparer régimes</button>
      <button data-path="/tax/calculate">Calculer taxes</button>
    </div>
  </div>
  <div class="card">
    <div><b>Réponse</b></div>
    <pre id="out">…</pre>
  </div>

<script>
const defaultPayload = {
  filters: {
    fuel_type: "essence",
    body_style: "any",
    condition: "any",
    budget_tnd: 90000,
    regime: "standard"
  },
  limit: 5,
  include_cost_breakdown: true,
  price_eur: 15000,
  engine_cc: 1600,
  age_years: 3,
  country: "allemagne"
};

const ta = document.getElementById("payload");
const out = document.getElementById("out");
ta.value = JSON.stringify(defaultPayload, null, 2);

for (const btn of document.querySelectorAll("button[data-path]")) {
  btn.addEventListener("click", async () => {
    out.textContent = "…";
    let payload;
    try { payload = JSON.parse(ta.value); } catch (e) {
      out.textContent = "Erreur JSON: " + e.message;
      return;
    }
    try {
      const res = await fetch(btn.dataset.path, {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify(payload)
      });
      out.textContent = await res.text();
    } catch (e) {
      out.textContent = "Erreur requête: " + e.message;
    }
  });
}
</script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
