package page

import (
	"net/url"
	"regexp"
)

var renterPathPattern = regexp.MustCompile(`^/renter/(\d+)/?$`)

// RenterRef is a link to a renter detail page.
type RenterRef struct {
	ID   string
	Name string
}

// Renters lists the distinct renter links on the page in document order.
func (d *Document) Renters() []RenterRef {
	seen := map[string]bool{}
	out := []RenterRef{}
	for _, link := range d.Links {
		u, err := url.Parse(link.Href)
		if err != nil {
			continue
		}
		m := renterPathPattern.FindStringSubmatch(u.Path)
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		name := link.Text
		if name == "" {
			name = "renter " + m[1]
		}
		out = append(out, RenterRef{ID: m[1], Name: name})
	}
	return out
}
