package downloader

import (
	"fanfic-downloader/model"
	"sort"
)

// Registry maps a story host to the Source that can fetch it. Supporting a
// new site means adding one Source to the list handed to NewRegistry.
type Registry struct {
	sources map[string]model.Source
}

func NewRegistry(sources ...model.Source) *Registry {
	r := &Registry{sources: make(map[string]model.Source, len(sources))}
	for _, source := range sources {
		r.sources[source.Host()] = source
	}
	return r
}

func (r *Registry) Lookup(host string) (model.Source, bool) {
	source, ok := r.sources[host]
	return source, ok
}

// Hosts returns the registered hosts in sorted order.
func (r *Registry) Hosts() []string {
	hosts := make([]string, 0, len(r.sources))
	for host := range r.sources {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
