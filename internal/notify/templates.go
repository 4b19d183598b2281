// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/tomtom215/tourdesk/internal/models"
)

const staffText = `A new {{.Title}} was submitted.

Reference: {{.Code}}
Name: {{.Name}}
Email: {{.Email}}
{{- if .Phone}}
Phone: {{.Phone}}{{end}}
{{- if .Subject}}
Subject: {{.Subject}}{{end}}
{{- range .Details}}
{{.Label}}: {{.Value}}{{end}}
{{- if .Items}}

Items:
{{- range .Items}}
  - {{.Name}}: {{money .UnitPrice}} x {{.Quantity}}{{if .Days}} ({{.Days}} days){{end}}{{if .Notes}} [{{.Notes}}]{{end}}{{end}}
Total: {{money .Total}}{{end}}
{{- if .Message}}

Message:
{{.Message}}{{end}}
`

const staffHTML = `<p>A new {{.Title}} was submitted.</p>
<table>
<tr><th align="left">Reference</th><td>{{.Code}}</td></tr>
<tr><th align="left">Name</th><td>{{.Name}}</td></tr>
<tr><th align="left">Email</th><td>{{.Email}}</td></tr>
{{- if .Phone}}
<tr><th align="left">Phone</th><td>{{.Phone}}</td></tr>{{end}}
{{- if .Subject}}
<tr><th align="left">Subject</th><td>{{.Subject}}</td></tr>{{end}}
{{- range .Details}}
<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>{{end}}
</table>
{{- if .Items}}
<ul>
{{- range .Items}}
<li>{{.Name}}: {{money .UnitPrice}} &times; {{.Quantity}}{{if .Days}} ({{.Days}} days){{end}}{{if .Notes}} <em>{{.Notes}}</em>{{end}}</li>{{end}}
</ul>
<p><strong>Total: {{money .Total}}</strong></p>{{end}}
{{- if .Message}}
<p>{{.Message}}</p>{{end}}
`

const customerText = `Dear {{.Greeting}},

Thank you for your {{.Title}}. Your reference is {{.Code}}.
{{- if .ItemName}}

{{.ItemName}}{{end}}
{{- range .Details}}
{{.Label}}: {{.Value}}{{end}}
{{- if .Total.Amount}}
Total: {{money .Total}}{{end}}

Our team will contact you shortly. Payment is made by bank transfer once
your booking is confirmed by our staff.

{{.Signature}}
`

const customerHTML = `<p>Dear {{.Greeting}},</p>
<p>Thank you for your {{.Title}}. Your reference is <strong>{{.Code}}</strong>.</p>
{{- if .ItemName}}
<p>{{.ItemName}}</p>{{end}}
{{- if .Details}}
<table>
{{- range .Details}}
<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>{{end}}
</table>{{end}}
{{- if .Total.Amount}}
<p><strong>Total: {{money .Total}}</strong></p>{{end}}
<p>Our team will contact you shortly. Payment is made by bank transfer once your booking is confirmed by our staff.</p>
<p>{{.Signature}}</p>
`

// Renderer turns a Notice into per-audience emails. Text bodies use
// text/template; HTML bodies use html/template so every customer-supplied
// value is escaped.
type Renderer struct {
	staffText    *texttemplate.Template
	customerText *texttemplate.Template
	staffHTML    *htmltemplate.Template
	customerHTML *htmltemplate.Template
	signature    string
}

// NewRenderer parses the built-in templates. signature closes customer
// emails, typically the operator's name.
func NewRenderer(signature string) *Renderer {
	if signature == "" {
		signature = "Tourdesk"
	}
	textFuncs := texttemplate.FuncMap{"money": formatMoney}
	htmlFuncs := htmltemplate.FuncMap{"money": formatMoney}
	return &Renderer{
		staffText:    texttemplate.Must(texttemplate.New("staff").Funcs(textFuncs).Parse(staffText)),
		customerText: texttemplate.Must(texttemplate.New("customer").Funcs(textFuncs).Parse(customerText)),
		staffHTML:    htmltemplate.Must(htmltemplate.New("staff").Funcs(htmlFuncs).Parse(staffHTML)),
		customerHTML: htmltemplate.Must(htmltemplate.New("customer").Funcs(htmlFuncs).Parse(customerHTML)),
		signature:    signature,
	}
}

type templateData struct {
	Notice
	Title     string
	Greeting  string
	Signature string
}

// Render builds the email for audience. to is the recipient address.
func (r *Renderer) Render(n Notice, audience Audience, to string) (Email, error) {
	data := templateData{
		Notice:    n,
		Title:     kindTitle(n.Kind),
		Greeting:  n.Name,
		Signature: r.signature,
	}
	if data.Greeting == "" {
		data.Greeting = "traveller"
	}

	var (
		textBuf, htmlBuf bytes.Buffer
		subject          string
		err              error
	)
	switch audience {
	case AudienceStaff:
		subject = staffSubject(n)
		if err = r.staffText.Execute(&textBuf, data); err == nil {
			err = r.staffHTML.Execute(&htmlBuf, data)
		}
	case AudienceCustomer:
		subject = fmt.Sprintf("We received your %s (%s)", data.Title, n.Code)
		if err = r.customerText.Execute(&textBuf, data); err == nil {
			err = r.customerHTML.Execute(&htmlBuf, data)
		}
	default:
		return Email{}, fmt.Errorf("notify: unknown audience %q", audience)
	}
	if err != nil {
		return Email{}, fmt.Errorf("notify: render %s email: %w", audience, err)
	}

	email := Email{
		Audience: audience,
		Kind:     n.Kind,
		Code:     n.Code,
		To:       to,
		Subject:  subject,
		Text:     textBuf.String(),
		HTML:     htmlBuf.String(),
	}
	if audience == AudienceStaff {
		email.ReplyTo = n.Email
	}
	return email, nil
}

func staffSubject(n Notice) string {
	switch {
	case n.Kind == models.KindContact && n.Subject != "":
		return fmt.Sprintf("Contact message %s: %s", n.Code, n.Subject)
	case n.ItemName != "":
		return fmt.Sprintf("New %s %s: %s", kindTitle(n.Kind), n.Code, n.ItemName)
	default:
		return fmt.Sprintf("New %s %s", kindTitle(n.Kind), n.Code)
	}
}

func kindTitle(k models.Kind) string {
	switch k {
	case models.KindBooking:
		return "booking request"
	case models.KindQuote:
		return "quote request"
	case models.KindContact:
		return "contact message"
	case models.KindBundle:
		return "bundle request"
	case models.KindCustom:
		return "custom package request"
	default:
		return strings.ToLower(string(k)) + " request"
	}
}

func formatMoney(m models.Money) string {
	return m.String()
}
