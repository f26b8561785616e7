package main

import (
	"fmt"

	"listalloc"
	"listalloc/alloc"
	"listalloc/bump"
	"listalloc/config"
	"listalloc/freelist"
	"listalloc/region"
	"listalloc/stats"
)

// demo bundles a List with the stats.Registry its factory reports
// into, so the run/bench commands can enumerate every child the List
// has created without the List exposing its internal slot array.
type demo struct {
	list *listalloc.List
	reg  *stats.Registry
}

func childFactory(cfg *config.Config) (alloc.Factory, error) {
	switch cfg.Backend {
	case config.BackendBump:
		return bump.NewFactory(cfg.ChildCapacity), nil
	case config.BackendRegion:
		return region.NewFactory(cfg.ChildCapacity), nil
	case config.BackendFreelist:
		return freelist.NewFactory(cfg.ChildCapacity, cfg.Alignment), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func newDemo(cfg *config.Config) (*demo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := childFactory(cfg)
	if err != nil {
		return nil, err
	}

	d := &demo{}
	factory := base
	if cfg.StatsEnabled {
		d.reg = stats.NewRegistry(8)
		factory = stats.RegisteredFactory(base, d.reg)
	}

	opts := listalloc.Options{
		Factory:   factory,
		Ouroboros: cfg.Ouroboros,
		Alignment: cfg.Alignment,
	}
	if !cfg.Ouroboros {
		bk, err := freelist.New(cfg.ChildCapacity, cfg.Alignment)
		if err != nil {
			return nil, fmt.Errorf("allocating bookkeeping arena: %w", err)
		}
		opts.Bookkeeping = bk
	}

	l, err := listalloc.New(opts)
	if err != nil {
		return nil, err
	}
	d.list = l
	return d, nil
}
