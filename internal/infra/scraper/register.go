package scraper

import (
	"sactech-events/internal/domain/entity"
	"sactech-events/internal/usecase/fetch"
)

// Register adds the built-in source kinds to reg.
func Register(reg *fetch.Registry) error {
	kinds := []struct {
		id    string
		label string
		ctor  fetch.Constructor
	}{
		{entity.SourceKindMeetup, "Meetup.com", func(src *entity.Source, cfg fetch.AdapterConfig) (fetch.Adapter, error) {
			a, err := NewMeetupAdapter(src, cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		}},
		{entity.SourceKindWebsite, "Website", func(src *entity.Source, cfg fetch.AdapterConfig) (fetch.Adapter, error) {
			a, err := NewWebsiteAdapter(src, cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		}},
		{entity.SourceKindRSS, "RSS / Atom feed", func(src *entity.Source, cfg fetch.AdapterConfig) (fetch.Adapter, error) {
			a, err := NewRSSAdapter(src, cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		}},
	}

	for _, k := range kinds {
		if err := reg.Register(k.id, k.label, k.ctor); err != nil {
			return err
		}
	}
	return nil
}
