package downloader

import (
	"fanfic-downloader/model"
	"net/url"
	"slices"
	"strings"
)

var validSchemes = []string{"http", "https"}

// ValidateURL checks scheme, host and path of raw in that order and reports
// the first one that is wrong.
func ValidateURL(raw string, hosts []string) (*model.StoryURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, model.Errorf(model.ErrInvalidURL, "Invalid url: %v", err)
	}

	checks := []error{
		oneOf(u.Scheme, validSchemes),
		oneOf(u.Host, hosts),
	}
	if u.Path == "" || u.Path == "/" {
		checks = append(checks, model.Errorf(model.ErrInvalidURL, "Invalid url. Needs story path (part after url's .com; .net; etc)"))
	}
	for _, err := range checks {
		if err != nil {
			return nil, err
		}
	}

	return &model.StoryURL{
		Raw:    raw,
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
	}, nil
}

func oneOf(value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return model.Errorf(model.ErrInvalidURL, "Invalid url. Needs one: (%s)", strings.Join(allowed, ", "))
}
