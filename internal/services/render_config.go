package services

import (
	"github.com/pkg/errors"

	"camio-service/internal/config"
	"camio-service/internal/models"
)

var (
	// ErrInvalidRequest marks failures caused by the caller's input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownProfile is returned for a render profile that is not loaded.
	ErrUnknownProfile = errors.Wrap(ErrInvalidRequest, "unknown render profile")
)

// RenderConfigResolver picks the render configuration of a request.
type RenderConfigResolver struct {
	profiles config.Profiles
}

func NewRenderConfigResolver(profiles config.Profiles) *RenderConfigResolver {
	if profiles == nil {
		profiles = config.Profiles{}
	}
	return &RenderConfigResolver{profiles: profiles}
}

// Resolve returns the explicit configuration when one is given, otherwise
// the named profile, otherwise the default configuration.
func (r *RenderConfigResolver) Resolve(explicit models.RenderConfig, profile string) (models.RenderConfig, error) {
	if len(explicit) > 0 {
		return explicit.Normalize(), nil
	}
	if profile != "" {
		cfg, ok := r.profiles.Get(profile)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownProfile, "%q", profile)
		}
		return cfg, nil
	}
	return models.DefaultRenderConfig(), nil
}

// Detected returns the default configuration restricted to the categories
// found in scan.
func (r *RenderConfigResolver) Detected(scan models.Scan) models.RenderConfig {
	scan.Normalize()
	return models.DefaultRenderConfig().Detected(scan)
}

// ProfileNames lists the loaded profiles.
func (r *RenderConfigResolver) ProfileNames() []string {
	return r.profiles.Names()
}

func prepareScan(scan *models.Scan) error {
	scan.Normalize()
	if err := scan.Validate(); err != nil {
		return errors.Wrap(ErrInvalidRequest, err.Error())
	}
	return nil
}
