package data

import (
	"context"
	"sort"

	"github.com/tunogya/hcpart/pkg/model"
)

// ProfileProvider defines the interface for loading the profiles of a case
type ProfileProvider interface {
	// LoadProfiles returns every profile with its values ordered by time step
	LoadProfiles(ctx context.Context) ([]model.Profile, error)
}

// FlowProvider defines the interface for loading the flows of a case
type FlowProvider interface {
	LoadFlows(ctx context.Context) ([]model.Flow, error)
}

// Input file names of a Tulipa case directory
const (
	DemandFile       = "profiles-rep-periods-demand.csv"
	AvailabilityFile = "profiles-rep-periods-availability.csv"
	InflowsFile      = "profiles-rep-periods-inflows.csv"
	FlowsFile        = "flows-data.csv"
)

// DefaultProfileFiles returns the profile files read from a case directory
func DefaultProfileFiles() []string {
	return []string{DemandFile, AvailabilityFile, InflowsFile}
}

// MemoryProvider implements ProfileProvider and FlowProvider with in-memory
// storage
type MemoryProvider struct {
	profiles []model.Profile
	flows    []model.Flow
}

// NewMemoryProvider creates a new in-memory provider
func NewMemoryProvider(profiles []model.Profile, flows []model.Flow) *MemoryProvider {
	return &MemoryProvider{
		profiles: profiles,
		flows:    flows,
	}
}

// AddProfiles adds profiles to the provider
func (p *MemoryProvider) AddProfiles(profiles ...model.Profile) {
	p.profiles = append(p.profiles, profiles...)
}

// LoadProfiles returns the stored profiles sorted by name
func (p *MemoryProvider) LoadProfiles(ctx context.Context) ([]model.Profile, error) {
	out := make([]model.Profile, len(p.profiles))
	copy(out, p.profiles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, ctx.Err()
}

// LoadFlows returns the stored flows
func (p *MemoryProvider) LoadFlows(ctx context.Context) ([]model.Flow, error) {
	out := make([]model.Flow, len(p.flows))
	copy(out, p.flows)
	return out, ctx.Err()
}
