package page

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Form is a <form> and its controls.
type Form struct {
	ID      string
	Name    string
	Action  string
	Method  string
	Classes []string
	Fields  []Field
}

// Field is one named control. Value is the current value; Default is the
// value the page was served with.
type Field struct {
	ID       string
	Name     string
	Tag      string
	Type     string
	Label    string
	Value    string
	Default  string
	Checked  bool
	Disabled bool
	Options  []Option

	defaultChecked bool
}

// Option is a <select> choice.
type Option struct {
	Value    string
	Text     string
	Selected bool
}

// HasClass reports whether the form carries class.
func (f *Form) HasClass(class string) bool {
	for _, c := range f.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Kind is the value of the hidden "ac" input the main page uses to tell
// its forms apart, or "" when there is none.
func (f *Form) Kind() string {
	for _, field := range f.Fields {
		if field.Name == "ac" && field.Type == "hidden" {
			return field.Value
		}
	}
	return ""
}

// ActionPath is the path part of the action, so absolute and relative
// actions for the same endpoint compare equal.
func (f *Form) ActionPath() string {
	u, err := url.Parse(strings.TrimSpace(f.Action))
	if err != nil {
		return f.Action
	}
	return u.Path
}

// Title names the form for display.
func (f *Form) Title() string {
	switch {
	case f.Kind() != "":
		return strings.ReplaceAll(f.Kind(), "_", " ")
	case f.Name != "":
		return f.Name
	case f.ID != "":
		return f.ID
	case f.Action != "":
		return f.Action
	default:
		return "form"
	}
}

// Lookup returns the first field named name.
func (f *Form) Lookup(name string) (*Field, bool) {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i], true
		}
	}
	return nil, false
}

// Get returns the current value of the named field, or "".
func (f *Form) Get(name string) string {
	if field, ok := f.Lookup(name); ok {
		return field.Value
	}
	return ""
}

// Set changes the current value of the named field.
func (f *Form) Set(name, value string) error {
	field, ok := f.Lookup(name)
	if !ok {
		return fmt.Errorf("form %q has no field %q", f.Title(), name)
	}
	if field.Tag == "select" && len(field.Options) > 0 {
		found := false
		for _, opt := range field.Options {
			if opt.Value == value {
				found = true
				break
			}
		}
		if !found && value != "" {
			return fmt.Errorf("field %q has no option %q", name, value)
		}
	}
	if field.Type == "checkbox" || field.Type == "radio" {
		field.Checked = value != "" && value != "false" && value != "off"
		return nil
	}
	field.Value = value
	return nil
}

// Editable lists the fields a user fills in.
func (f *Form) Editable() []*Field {
	out := make([]*Field, 0, len(f.Fields))
	for i := range f.Fields {
		field := &f.Fields[i]
		if field.Disabled {
			continue
		}
		switch field.Type {
		case "hidden", "submit", "button", "reset", "image":
			continue
		}
		out = append(out, field)
	}
	return out
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	out := *f
	out.Classes = append([]string(nil), f.Classes...)
	out.Fields = make([]Field, len(f.Fields))
	for i, field := range f.Fields {
		field.Options = append([]Option(nil), field.Options...)
		out.Fields[i] = field
	}
	return &out
}

// Reset restores every field to the value it was served with.
func (f *Form) Reset() {
	for i := range f.Fields {
		f.Fields[i].Value = f.Fields[i].Default
		f.Fields[i].Checked = f.Fields[i].defaultChecked
	}
}

// Values serializes the form the way a browser builds FormData: named,
// enabled controls only; unchecked boxes and buttons are skipped.
func (f *Form) Values() url.Values {
	out := url.Values{}
	for _, field := range f.Fields {
		if field.Name == "" || field.Disabled {
			continue
		}
		switch field.Type {
		case "submit", "button", "reset", "image", "file":
			continue
		case "checkbox", "radio":
			if !field.Checked {
				continue
			}
			value := field.Value
			if value == "" {
				value = "on"
			}
			out.Add(field.Name, value)
			continue
		}
		out.Add(field.Name, field.Value)
	}
	return out
}

func parseForm(n *html.Node) *Form {
	form := &Form{
		ID:      getAttr(n, "id"),
		Name:    getAttr(n, "name"),
		Action:  strings.TrimSpace(getAttr(n, "action")),
		Method:  strings.ToUpper(strings.TrimSpace(getAttr(n, "method"))),
		Classes: classes(n),
	}
	if form.Method == "" {
		form.Method = "GET"
	}

	labels := map[string]string{}
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "label":
				if target := getAttr(c, "for"); target != "" {
					labels[target] = strings.TrimSuffix(textContent(c), ":")
				}
			case "input":
				form.Fields = append(form.Fields, parseInput(c))
			case "select":
				form.Fields = append(form.Fields, parseSelect(c))
				return
			case "textarea":
				value := textContent(c)
				form.Fields = append(form.Fields, Field{
					ID:       getAttr(c, "id"),
					Name:     getAttr(c, "name"),
					Tag:      "textarea",
					Type:     "textarea",
					Value:    value,
					Default:  value,
					Disabled: hasAttr(c, "disabled"),
				})
				return
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}

	for i := range form.Fields {
		field := &form.Fields[i]
		if label, ok := labels[field.ID]; ok && label != "" {
			field.Label = label
		} else {
			field.Label = field.Name
		}
	}
	return form
}

func parseInput(n *html.Node) Field {
	typ := strings.ToLower(getAttr(n, "type"))
	if typ == "" {
		typ = "text"
	}
	value := getAttr(n, "value")
	checked := hasAttr(n, "checked")
	return Field{
		ID:             getAttr(n, "id"),
		Name:           getAttr(n, "name"),
		Tag:            "input",
		Type:           typ,
		Value:          value,
		Default:        value,
		Checked:        checked,
		Disabled:       hasAttr(n, "disabled"),
		defaultChecked: checked,
	}
}

func parseSelect(n *html.Node) Field {
	field := Field{
		ID:       getAttr(n, "id"),
		Name:     getAttr(n, "name"),
		Tag:      "select",
		Type:     "select",
		Disabled: hasAttr(n, "disabled"),
	}

	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "option" {
			text := textContent(c)
			value := text
			if hasAttr(c, "value") {
				value = getAttr(c, "value")
			}
			field.Options = append(field.Options, Option{
				Value:    value,
				Text:     text,
				Selected: hasAttr(c, "selected"),
			})
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	for _, opt := range field.Options {
		if opt.Selected {
			field.Value = opt.Value
			break
		}
	}
	if field.Value == "" && len(field.Options) > 0 && !hasAttr(n, "multiple") {
		field.Value = field.Options[0].Value
	}
	field.Default = field.Value
	return field
}
