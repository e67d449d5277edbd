package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

// HTTPProvider resolves directory lookups against the identity & directory
// service's REST API.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider creates a directory provider talking to baseURL
func NewHTTPProvider(baseURL string) providers.DirectoryProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetDoctor resolves a doctor with their fee schedule
func (p *HTTPProvider) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	out := &entities.Doctor{}
	endpoint := fmt.Sprintf("%s/directory/doctors/%s", p.baseURL, url.PathEscape(id))
	if err := p.doJSON(ctx, endpoint, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDoctorsBySpecialty resolves every doctor of a specialty
func (p *HTTPProvider) ListDoctorsBySpecialty(ctx context.Context, specialtyID string) ([]*entities.Doctor, error) {
	var out struct {
		Doctors []*entities.Doctor `json:"doctors"`
	}
	endpoint := fmt.Sprintf("%s/directory/specialties/%s/doctors", p.baseURL, url.PathEscape(specialtyID))
	if err := p.doJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Doctors, nil
}

// GetRoom resolves room metadata
func (p *HTTPProvider) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	out := &entities.Room{}
	endpoint := fmt.Sprintf("%s/directory/rooms/%s", p.baseURL, url.PathEscape(id))
	if err := p.doJSON(ctx, endpoint, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSpecialty resolves a specialty
func (p *HTTPProvider) GetSpecialty(ctx context.Context, id string) (*entities.Specialty, error) {
	out := &entities.Specialty{}
	endpoint := fmt.Sprintf("%s/directory/specialties/%s", p.baseURL, url.PathEscape(id))
	if err := p.doJSON(ctx, endpoint, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *HTTPProvider) doJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build directory request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("directory service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, "directory entry not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewExternalError(
			fmt.Sprintf("directory service returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("failed to decode directory response", err)
	}

	return nil
}
