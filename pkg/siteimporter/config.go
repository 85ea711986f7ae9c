package siteimporter

import (
	"fmt"

	"github.com/blakewilliams/sitehop"
	"github.com/blakewilliams/sitehop/pkg/metrics"
	"github.com/blakewilliams/sitehop/pkg/param"
	"github.com/blakewilliams/sitehop/pkg/site"
	"github.com/blakewilliams/sitehop/pkg/template"
)

// Config is the document describing every known site and the parameters
// their templates may capture.
type Config struct {
	Parameters map[string]string `json:"parameters" yaml:"parameters"`
	Sites      []ConfigSiteEntry `json:"sites" yaml:"sites"`
}

type ConfigSiteEntry struct {
	ID        string               `json:"id" yaml:"id"`
	Link      string               `json:"link" yaml:"link"`
	HTTPOnly  bool                 `json:"httpOnly" yaml:"httpOnly"`
	Templates []*template.Template `json:"templates" yaml:"templates"`
}

// Build compiles config into a registry. Malformed templates and unknown
// parameters are reported here rather than when URLs are matched.
func Build(config Config) (*site.Registry, error) {
	parameters, err := param.New(config.Parameters)
	if err != nil {
		return nil, fmt.Errorf("could not load parameters: %w", err)
	}

	sites := make([]*site.Site, len(config.Sites))
	for i, entry := range config.Sites {
		sites[i] = createSite(entry)
	}

	registry, err := site.NewRegistry(parameters, sites...)
	if err != nil {
		return nil, fmt.Errorf("could not load sites: %w", err)
	}

	return registry, nil
}

// LoadSites builds config and publishes it to server.
func LoadSites(server *sitehop.Server, config Config) error {
	registry, err := Build(config)
	if err != nil {
		return err
	}

	server.SetRegistry(registry)
	server.Logger.Printf("Loaded %d sites and %d parameters\n", registry.Len(), registry.Parameters.Len())

	return nil
}

func createSite(entry ConfigSiteEntry) *site.Site {
	options := []site.Option{site.WithTemplates(entry.Templates...)}
	if entry.HTTPOnly {
		options = append(options, site.WithHTTPOnly())
	}

	return site.Define(entry.ID, entry.Link, options...)
}

func record(source string, server *sitehop.Server, err error) error {
	sites := 0
	if registry := server.Registry(); registry != nil && err == nil {
		sites = registry.Len()
	}

	metrics.RecordConfigLoad(source, sites, err)

	return err
}
