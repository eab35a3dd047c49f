package redirect

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"sync"

	apperrors "travelease/internal/errors"
)

// Intent is a single-use redirect to the hosted payment page: the gateway
// payload rendered as hidden fields of a form that posts itself on load.
// Field names and values pass through unmodified; only HTML attribute
// escaping is applied, which the browser undoes before submitting.
type Intent struct {
	mu       sync.Mutex
	url      string
	fields   map[string]string
	consumed bool
}

type formField struct {
	Name  string
	Value string
}

var pageTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting to payment</title>
</head>
<body onload="document.getElementById('gateway-redirect').submit()">
<p>Taking you to the secure payment page&hellip;</p>
<form id="gateway-redirect" method="POST" action="{{.URL}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// NewIntent builds a redirect intent. An empty payload or target URL is
// rejected so the bridge can never fire before data has arrived.
func NewIntent(url string, fields map[string]string) (*Intent, error) {
	if url == "" {
		return nil, fmt.Errorf("redirect target URL is empty")
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrMissingPayload
	}

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	return &Intent{url: url, fields: copied}, nil
}

// Consumed reports whether the intent has already been rendered.
func (i *Intent) Consumed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.consumed
}

// Fire renders the auto-submitting form exactly once. A second call fails;
// re-rendering would re-post a payload the gateway considers spent.
func (i *Intent) Fire() ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.consumed {
		return nil, apperrors.ErrRedirectConsumed
	}

	// Deterministic field order; nothing is renamed, dropped or added.
	names := make([]string, 0, len(i.fields))
	for name := range i.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]formField, 0, len(names))
	for _, name := range names {
		fields = append(fields, formField{Name: name, Value: i.fields[name]})
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		URL    string
		Fields []formField
	}{URL: i.url, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("failed to render redirect page: %w", err)
	}

	i.consumed = true
	return buf.Bytes(), nil
}
