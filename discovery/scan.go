package discovery

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/errors"
)

// RegisterFunc registers one discovered domain. It matches
// (*registry.Registry).RegisterDomain.
type RegisterFunc func(info domains.DomainInfo, h domains.Handler) error

// ParseManifest reads and validates one manifest file.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	m.Path = path

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Scan reads every *.domain.toml under the given paths. Unreadable paths and
// invalid manifests are logged and skipped; duplicate domain_ids keep the
// first manifest seen. Results come back sorted by domain_id.
func Scan(paths []string, logger *zap.SugaredLogger) []Manifest {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var manifests []Manifest
	seen := make(map[string]string) // domain_id -> manifest path

	for _, path := range paths {
		expanded, err := expandAndValidatePath(path)
		if err != nil {
			logger.Warnw("Invalid discovery path, skipping",
				"path", path,
				"error", err)
			continue
		}

		entries, err := os.ReadDir(expanded)
		if err != nil {
			logger.Debugw("Discovery path not readable, skipping",
				"path", expanded,
				"error", err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ManifestSuffix) {
				continue
			}

			manifestPath := filepath.Join(expanded, entry.Name())
			m, err := ParseManifest(manifestPath)
			if err != nil {
				logger.Warnw("Skipping invalid manifest",
					"path", manifestPath,
					"error", err)
				continue
			}

			if first, dup := seen[m.DomainID]; dup {
				logger.Warnw("Skipping duplicate manifest",
					"domain_id", m.DomainID,
					"path", manifestPath,
					"first_seen", first)
				continue
			}
			seen[m.DomainID] = manifestPath
			manifests = append(manifests, *m)
		}
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].DomainID < manifests[j].DomainID
	})
	return manifests
}

// RegisterManifests builds an exec handler for each manifest and registers
// it. Conflicts (already-registered domains) and rejected registrations are
// logged and skipped, never fatal. Returns how many domains were registered.
func RegisterManifests(manifests []Manifest, register RegisterFunc, logger *zap.SugaredLogger) int {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	registered := 0
	for _, m := range manifests {
		h, err := NewExecHandler(m, logger)
		if err != nil {
			logger.Warnw("Failed to build handler for manifest",
				"domain_id", m.DomainID,
				"error", err)
			continue
		}

		if err := register(m.DomainInfo(), h); err != nil {
			if errors.IsRegistrationConflict(err) {
				logger.Debugw("Domain already registered, skipping",
					"domain_id", m.DomainID)
			} else {
				logger.Warnw("Failed to register discovered domain",
					"domain_id", m.DomainID,
					"error", err)
			}
			continue
		}
		registered++
	}
	return registered
}

// expandAndValidatePath safely expands and validates a path using go-getter.
// Handles ~, relative paths, and validates the result is a valid filesystem path.
func expandAndValidatePath(path string) (string, error) {
	// Handle tilde expansion first (go-getter doesn't do this)
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		path = filepath.Join(home, path[2:])
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		return home, nil
	}

	// Get current working directory for resolving relative paths
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	// Use go-getter's detection to safely handle paths
	detected, err := getter.Detect(path, pwd, getter.Detectors)
	if err != nil {
		return "", errors.Wrap(err, "invalid path")
	}

	// Parse the detected URL/path
	u, err := url.Parse(detected)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse path")
	}

	// For file:// URLs, extract the path
	if u.Scheme == "file" {
		return u.Path, nil
	}

	// For local paths (no scheme or empty scheme), make absolute
	if u.Scheme == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", errors.Wrap(err, "failed to make absolute path")
		}
		return abs, nil
	}

	return "", errors.Newf("unsupported path scheme: %s (expected file:// or local path)", u.Scheme)
}
