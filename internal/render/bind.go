package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

const (
	tokenOpen  = "{{"
	tokenClose = "}}"
	eachPrefix = "#each "
	eachEnd    = "/each"
	itemsBlock = "items"
)

// ErrUnclosedBlock reports an {{#each}} block with no matching {{/each}}.
var ErrUnclosedBlock = fmt.Errorf("unclosed each block: %w", httpx.ErrValidation)

// Context is the ephemeral key/value mapping consumed by substitution.
// Scalars resolve {{identifier}} tokens; Items feeds the {{#each items}}
// repeating block, each row seeing its own keys plus the outer scalars.
type Context struct {
	Scalars map[string]string
	Items   []map[string]string
}

// BuildContext flattens a render input into substitution keys. Every value
// is a preformatted string; money and dates arrive already localised.
func BuildContext(in Input) Context {
	scalars := map[string]string{
		"companyName":    in.Company.Name,
		"companyAddress": in.Company.Address,
		"companyCity":    in.Company.City,
		"companyPostal":  in.Company.Postal,
		"companyCountry": in.Company.Country,
		"companyLogo":    in.Company.LogoURL,
		"companyEmail":   in.Company.Email,
		"companyTaxId":   in.Company.TaxID,

		"clientName":    in.Client.Name,
		"clientAddress": in.Client.Address,
		"clientCity":    in.Client.City,
		"clientPostal":  in.Client.Postal,
		"clientCountry": in.Client.Country,
		"clientEmail":   in.Client.Email,

		"invoiceNumber": in.Invoice.Number,
		"issueDate":     FormatDate(in.Invoice.IssueDate, in.Timezone),
		"dueDate":       FormatDate(in.Invoice.DueDate, in.Timezone),
		"notes":         in.Invoice.Notes,
		"terms":         in.Invoice.Terms,
		"status":        in.Invoice.Status,

		"subtotal":  FormatMoney(in.Totals.Subtotal, in.Currency, in.Locale),
		"taxRate":   in.Totals.TaxRatePercent.String() + "%",
		"taxAmount": FormatMoney(in.Totals.TaxAmount, in.Currency, in.Locale),
		"total":     FormatMoney(in.Totals.Total, in.Currency, in.Locale),
	}

	items := make([]map[string]string, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, map[string]string{
			"description": it.Description,
			"quantity":    FormatQuantity(it.Quantity),
			"unitPrice":   FormatMoney(it.UnitPrice, in.Currency, in.Locale),
			"total":       FormatMoney(it.LineTotal, in.Currency, in.Locale),
		})
	}

	return Context{Scalars: scalars, Items: items}
}

// Bind substitutes the context into a template body and returns the final
// HTML document. Grammar: {{identifier}} scalars and a single, non-nested
// {{#each items}}...{{/each}} repeating block. Unknown tokens resolve to the
// empty string. Every substituted value is HTML-escaped.
func Bind(body string, ctx Context) (string, error) {
	var out strings.Builder
	out.Grow(len(body))

	for len(body) > 0 {
		open := strings.Index(body, tokenOpen)
		if open < 0 {
			out.WriteString(body)
			break
		}
		out.WriteString(body[:open])
		body = body[open:]

		end := strings.Index(body, tokenClose)
		if end < 0 {
			// Unterminated "{{" is literal text, not a token.
			out.WriteString(body)
			break
		}
		token := strings.TrimSpace(body[len(tokenOpen):end])
		body = body[end+len(tokenClose):]

		if name, isBlock := strings.CutPrefix(token, eachPrefix); isBlock {
			sub, rest, err := cutBlock(body)
			if err != nil {
				return "", err
			}
			body = rest
			if strings.TrimSpace(name) != itemsBlock {
				continue
			}
			for _, row := range ctx.Items {
				bindScalars(&out, sub, ctx.Scalars, row)
			}
			continue
		}

		// Stray {{/each}} or any unknown scalar renders empty.
		if token != eachEnd {
			out.WriteString(html.EscapeString(ctx.Scalars[token]))
		}
	}

	return out.String(), nil
}

// cutBlock splits body at the matching {{/each}} marker.
func cutBlock(body string) (sub, rest string, err error) {
	marker := tokenOpen + eachEnd + tokenClose
	idx := strings.Index(body, marker)
	if idx < 0 {
		return "", "", ErrUnclosedBlock
	}
	return body[:idx], body[idx+len(marker):], nil
}

// bindScalars runs the scalar-only pass for one repeating-block row. Row keys
// shadow outer scalars, so a line's "total" wins over the invoice total.
func bindScalars(out *strings.Builder, body string, outer, row map[string]string) {
	for len(body) > 0 {
		open := strings.Index(body, tokenOpen)
		if open < 0 {
			out.WriteString(body)
			return
		}
		out.WriteString(body[:open])
		body = body[open:]

		end := strings.Index(body, tokenClose)
		if end < 0 {
			out.WriteString(body)
			return
		}
		token := strings.TrimSpace(body[len(tokenOpen):end])
		body = body[end+len(tokenClose):]

		value, ok := row[token]
		if !ok {
			value = outer[token]
		}
		out.WriteString(html.EscapeString(value))
	}
}
