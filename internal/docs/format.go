package docs

import (
	"fmt"
	"regexp"
	"strings"
)

// FormatModule renders module documentation as Markdown.
func FormatModule(m *Module, route *Route) string {
	var sections []string
	if route != nil && route.Redirect != "" {
		sections = append(sections, fmt.Sprintf("***Redirected to: %s***", route.Redirect))
	}
	if m.ShortDescription != "" {
		sections = append(sections, "*"+replaceMacros(m.ShortDescription)+"*")
	}
	if m.Description != "" {
		sections = append(sections, "**Description**", replaceMacros(m.Description))
	}
	return strings.Join(sections, "\n\n")
}

// FormatRemoved renders the notice for a module removed from its collection.
func FormatRemoved(route Route) string {
	sections := []string{"**REMOVED**"}
	if route.Redirect != "" {
		sections = append(sections, fmt.Sprintf("Use *%s* instead.", route.Redirect))
	}
	return strings.Join(sections, "\n\n")
}

// FormatOption renders option documentation as Markdown.
func FormatOption(o *Option, withDetails bool) string {
	var sections []string
	if withDetails {
		sections = append(sections, "`"+OptionDetails(o)+"`")
	}
	if o.Description != "" {
		sections = append(sections, replaceMacros(o.Description))
	}
	if o.Default != nil {
		sections = append(sections, fmt.Sprintf("*Default*:\n```\n%v\n```", o.Default))
	}
	if len(o.Choices) > 0 {
		choices := make([]string, 0, len(o.Choices))
		for _, c := range o.Choices {
			choices = append(choices, fmt.Sprintf("`%v`", c))
		}
		sections = append(sections, "*Choices*: ["+strings.Join(choices, ",")+"]")
	}
	if len(o.Aliases) > 0 {
		names := []string{"`" + o.Name + "`"}
		for _, a := range o.Aliases {
			names = append(names, "`"+a+"`")
		}
		sections = append(sections, "*Aliases*: ["+strings.Join(names, ",")+"]")
	}
	return strings.Join(sections, "\n\n")
}

// OptionDetails summarizes an option as e.g. "(required) list(str)".
func OptionDetails(o *Option) string {
	var details []string
	if o.Required {
		details = append(details, "(required)")
	}
	switch {
	case o.Type == "list" && o.Elements != "":
		details = append(details, fmt.Sprintf("list(%s)", o.Elements))
	case o.Type != "":
		details = append(details, o.Type)
	}
	return strings.Join(details, " ")
}

var (
	linkMacro = regexp.MustCompile(`\bL\(([^,()]*),\s*([^()]*)\)`)
	codeMacro = regexp.MustCompile(`\b[CMOVE]\(([^()]*)\)`)
	italic    = regexp.MustCompile(`\bI\(([^()]*)\)`)
	bold      = regexp.MustCompile(`\bB\(([^()]*)\)`)
	urlMacro  = regexp.MustCompile(`\bU\(([^()]*)\)`)
)

// replaceMacros turns Ansible documentation markup into Markdown.
func replaceMacros(text string) string {
	text = linkMacro.ReplaceAllString(text, "[$1]($2)")
	text = codeMacro.ReplaceAllString(text, "`$1`")
	text = italic.ReplaceAllString(text, "*$1*")
	text = bold.ReplaceAllString(text, "**$1**")
	return urlMacro.ReplaceAllString(text, "$1")
}
