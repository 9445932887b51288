package fingerprint

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const fingerprintFile = "device-id"

// Provider hands out the persisted device identifier, generating one on
// first use. Two racing first-time callers may both generate and write;
// last write wins, which the server tolerates.
type Provider struct {
	path string
}

func NewProvider(homeDir string) *Provider {
	return &Provider{path: filepath.Join(homeDir, fingerprintFile)}
}

func (p *Provider) GetOrCreate() (string, error) {
	data, err := os.ReadFile(p.path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	id := uuid.NewString()

	if err := os.MkdirAll(filepath.Dir(p.path), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(p.path, []byte(id), 0600); err != nil {
		return "", err
	}

	return id, nil
}
