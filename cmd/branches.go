package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"gopkg.in/yaml.v3"
)

type branchesFile struct {
	Branches []branchEntry `yaml:"branches"`
}

type branchEntry struct {
	Code     string   `yaml:"code"`
	Zones    []string `yaml:"zones"`
	Active   *bool    `yaml:"active"`
	Priority int      `yaml:"priority"`
}

// LoadBranches decodes a branches file:
//
//	branches:
//	  - code: NORTH
//	    zones: [north-1, north-2]
//	    priority: 1
//	  - code: CENTRAL
//	    zones: [north-2, centre]
//	    active: false
//
// Branches are active unless stated otherwise. Ids are freshly generated;
// upserting by code keeps the id of a branch that already exists.
func LoadBranches(r io.Reader) ([]*branch.Branch, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file branchesFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode branches: %w", err)
	}

	seen := make(map[string]bool, len(file.Branches))
	branches := make([]*branch.Branch, 0, len(file.Branches))
	var errs []error
	for i, e := range file.Branches {
		active := e.Active == nil || *e.Active
		b, err := branch.NewBranch(kernel.NewUUID(), e.Code, e.Zones, active, e.Priority)
		if err != nil {
			errs = append(errs, fmt.Errorf("branch #%d: %w", i+1, err))
			continue
		}
		if seen[b.Code()] {
			errs = append(errs, fmt.Errorf("branch #%d: duplicate code %s", i+1, b.Code()))
			continue
		}
		seen[b.Code()] = true
		branches = append(branches, b)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return branches, nil
}

// SeedBranches upserts every branch in one transaction.
func SeedBranches(ctx context.Context, uowFactory ports.UnitOfWorkFactory, branches []*branch.Branch) error {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.BranchRepository()
	for _, b := range branches {
		if err := repo.Upsert(ctx, b); err != nil {
			return fmt.Errorf("upsert branch %s: %w", b.Code(), err)
		}
	}

	return uow.Commit(ctx)
}
