package service

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/repository"
	"github.com/lukashondrich/open-workinghours-sub001/internal/tracking"
)

// SiteService handles business logic for monitored sites
type SiteService struct {
	repo      *repository.SiteRepository
	minRadius float64
	maxRadius float64
}

// NewSiteService creates a new site service enforcing the given radius
// bounds on all geofences
func NewSiteService(repo *repository.SiteRepository, minRadius, maxRadius float64) *SiteService {
	return &SiteService{
		repo:      repo,
		minRadius: minRadius,
		maxRadius: maxRadius,
	}
}

func (s *SiteService) validateRadius(radius float64) error {
	if radius < s.minRadius || radius > s.maxRadius {
		return fmt.Errorf("radius_meters must be between %.0f and %.0f", s.minRadius, s.maxRadius)
	}
	return nil
}

// CreateSite validates and stores a new site
func (s *SiteService) CreateSite(input models.SiteInput) (*models.Site, error) {
	if err := s.validateRadius(input.RadiusMeters); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	site := &models.Site{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		RadiusMeters:   input.RadiusMeters,
		Active:         active,
		MonitorVersion: 1,
	}
	if err := s.repo.Create(site); err != nil {
		return nil, err
	}

	return site, nil
}

// GetSite retrieves a site by ID, or nil when it does not exist. Also
// serves as the engine's site source.
func (s *SiteService) GetSite(id string) (*models.Site, error) {
	return s.repo.GetByID(id)
}

// ListSites retrieves all sites
func (s *SiteService) ListSites(activeOnly bool) ([]models.Site, error) {
	return s.repo.List(activeOnly)
}

// UpdateSite applies the input to an existing site. Geometry or
// monitoring changes bump the monitor version so devices re-register
// their geofences.
func (s *SiteService) UpdateSite(id string, input models.SiteInput) (*models.Site, error) {
	site, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, tracking.ErrSiteNotFound
	}

	if err := s.validateRadius(input.RadiusMeters); err != nil {
		return nil, err
	}

	active := site.Active
	if input.Active != nil {
		active = *input.Active
	}

	monitorChanged := input.Latitude != site.Latitude ||
		input.Longitude != site.Longitude ||
		input.RadiusMeters != site.RadiusMeters ||
		active != site.Active

	site.Name = input.Name
	site.Latitude = input.Latitude
	site.Longitude = input.Longitude
	site.RadiusMeters = input.RadiusMeters
	site.Active = active
	if monitorChanged {
		site.MonitorVersion++
	}

	if err := s.repo.Update(site); err != nil {
		return nil, err
	}

	return site, nil
}

// DeactivateSite switches off monitoring for a site. Its sessions and
// events are kept; devices drop the geofence on their next monitor sync.
func (s *SiteService) DeactivateSite(id string) (*models.Site, error) {
	site, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, tracking.ErrSiteNotFound
	}
	if !site.Active {
		return site, nil
	}

	site.Active = false
	site.MonitorVersion++
	if err := s.repo.Update(site); err != nil {
		return nil, err
	}

	return site, nil
}

// ListMonitors returns the device-facing view of every active site
func (s *SiteService) ListMonitors() ([]models.Monitor, error) {
	sites, err := s.repo.List(true)
	if err != nil {
		return nil, err
	}

	monitors := make([]models.Monitor, 0, len(sites))
	for _, site := range sites {
		monitors = append(monitors, models.Monitor{
			SiteID:         site.ID,
			Latitude:       site.Latitude,
			Longitude:      site.Longitude,
			RadiusMeters:   site.RadiusMeters,
			MonitorVersion: site.MonitorVersion,
		})
	}

	return monitors, nil
}

// siteImport is the YAML document accepted by ImportSites
type siteImport struct {
	Sites []struct {
		Name         string  `yaml:"name"`
		Latitude     float64 `yaml:"latitude"`
		Longitude    float64 `yaml:"longitude"`
		RadiusMeters float64 `yaml:"radius_meters"`
		Active       *bool   `yaml:"active"`
	} `yaml:"sites"`
}

// ImportSites creates sites from a YAML document and returns how many
// were created. The whole document is validated before anything is
// written.
func (s *SiteService) ImportSites(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read import document: %w", err)
	}

	var doc siteImport
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("failed to parse import document: %w", err)
	}

	for i, entry := range doc.Sites {
		if entry.Name == "" {
			return 0, fmt.Errorf("site %d: name is required", i+1)
		}
		if entry.Latitude < -90 || entry.Latitude > 90 {
			return 0, fmt.Errorf("site %q: latitude out of range", entry.Name)
		}
		if entry.Longitude < -180 || entry.Longitude > 180 {
			return 0, fmt.Errorf("site %q: longitude out of range", entry.Name)
		}
		if err := s.validateRadius(entry.RadiusMeters); err != nil {
			return 0, fmt.Errorf("site %q: %w", entry.Name, err)
		}
	}

	created := 0
	for _, entry := range doc.Sites {
		input := models.SiteInput{
			Name:         entry.Name,
			Latitude:     entry.Latitude,
			Longitude:    entry.Longitude,
			RadiusMeters: entry.RadiusMeters,
			Active:       entry.Active,
		}
		if _, err := s.CreateSite(input); err != nil {
			return created, fmt.Errorf("site %q: %w", entry.Name, err)
		}
		created++
	}

	return created, nil
}
