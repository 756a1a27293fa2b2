package payments

import (
	"html/template"
	"net/http"

	"github.com/shophub-dev/shophub-backend/pkg/db/models"
)

// Browser-facing pages for the hosted checkout redirect endpoints. These are
// rendered server-side because the gateway redirects the shopper straight to
// the API; the page closes itself when opened in a checkout popup.

var successPage = template.Must(template.New("payment_success").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Payment Successful</title>
<style>
body { font-family: sans-serif; background: #f6f8fa; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
.card { background: #fff; border-radius: 8px; padding: 40px; text-align: center; box-shadow: 0 1px 4px rgba(0,0,0,0.1); }
.check { color: #22863a; font-size: 48px; }
.muted { color: #586069; }
</style>
</head>
<body>
<div class="card">
<div class="check">&#10003;</div>
<h1>Payment Successful</h1>
{{if .Order}}<p>Your order <strong>#{{.Order.ID}}</strong> has been placed.</p>
<p class="muted">Total: {{.Total}}</p>{{else}}<p>Your payment has been received.</p>{{end}}
<p class="muted">You can close this window.</p>
</div>
<script>setTimeout(function() { window.close(); }, 5000);</script>
</body>
</html>
`))

var failurePage = template.Must(template.New("payment_failed").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Payment Not Completed</title>
<style>
body { font-family: sans-serif; background: #f6f8fa; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
.card { background: #fff; border-radius: 8px; padding: 40px; text-align: center; box-shadow: 0 1px 4px rgba(0,0,0,0.1); }
.cross { color: #cb2431; font-size: 48px; }
.muted { color: #586069; }
</style>
</head>
<body>
<div class="card">
<div class="cross">&#10007;</div>
<h1>Payment Not Completed</h1>
<p>{{.Message}}</p>
<p class="muted">You can close this window.</p>
</div>
<script>setTimeout(function() { window.close(); }, 5000);</script>
</body>
</html>
`))

type successPageData struct {
	Order *models.Order
	Total string
}

type failurePageData struct {
	Message string
}

func renderSuccessPage(w http.ResponseWriter, order *models.Order) {
	data := successPageData{Order: order}
	if order != nil {
		data.Total = order.TotalAmount.StringFixed(2)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, data)
}

func renderFailurePage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = failurePage.Execute(w, failurePageData{Message: message})
}
