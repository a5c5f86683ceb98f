package mathflow

import "strings"

// Request selects an operation and carries its parameters. Every
// expression-valued field is LaTeX source.
type Request struct {
	Op         string     `json:"op,omitempty"`
	Expression string     `json:"latex,omitempty"`
	Variable   string     `json:"variable,omitempty"`
	Variables  []string   `json:"variables,omitempty"`
	Components []string   `json:"components,omitempty"`
	Lower      string     `json:"lower_limit,omitempty"`
	Upper      string     `json:"upper_limit,omitempty"`
	Point      string     `json:"point,omitempty"`
	Direction  string     `json:"direction,omitempty"`
	Order      int        `json:"order,omitempty"`
	Start      string     `json:"start,omitempty"`
	End        string     `json:"end,omitempty"`
	Limits     [][]string `json:"limits,omitempty"`

	// Remainder appends the O(...) term to a Taylor polynomial.
	Remainder bool `json:"remainder,omitempty"`
	// Tree adds the JSON tree of the result to the response.
	Tree bool `json:"tree,omitempty"`
}

// Response is the rendered result of an operation. Results holds the
// components of vector-valued results, and Result their combined notation.
type Response struct {
	Result  string      `json:"result"`
	Results []string    `json:"results,omitempty"`
	Tree    interface{} `json:"tree,omitempty"`
}

// clone copies r so that callers cannot alter a cached value through
// Results. Trees are shared.
func (r *Response) clone() *Response {
	out := *r
	out.Results = append([]string(nil), r.Results...)
	return &out
}

// has reports whether the named request field is set.
func (r *Request) has(field string) bool {
	switch field {
	case "latex":
		return strings.TrimSpace(r.Expression) != ""
	case "variable":
		return r.Variable != ""
	case "variables":
		return len(r.Variables) > 0
	case "components":
		return len(r.Components) > 0
	case "lower_limit":
		return r.Lower != ""
	case "upper_limit":
		return r.Upper != ""
	case "point":
		return r.Point != ""
	case "direction":
		return r.Direction != ""
	case "order":
		return r.Order != 0
	case "start":
		return r.Start != ""
	case "end":
		return r.End != ""
	case "limits":
		return len(r.Limits) > 0
	}
	return false
}

// fieldTypes gives the JSON schema type of each request field.
var fieldTypes = map[string]string{
	"latex":       "string",
	"variable":    "string",
	"variables":   "array",
	"components":  "array",
	"lower_limit": "string",
	"upper_limit": "string",
	"point":       "string",
	"direction":   "string",
	"order":       "integer",
	"start":       "string",
	"end":         "string",
	"limits":      "array",
	"remainder":   "boolean",
	"tree":        "boolean",
}
