package services

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	gameWebBaseURL    = "https://api.lp1.av5ja.srv.nintendo.net"
	appStoreLookupURL = "https://itunes.apple.com/lookup?id=1234806557"

	// fallbacks when the upstream pages change shape
	defaultWebHash    = "bd36a652"
	defaultWebVersion = "3.1.0"

	versionCacheTTL = 30 * time.Minute
)

var (
	webHashPattern     = regexp.MustCompile(`main\.([a-z0-9]{8})\.js`)
	webVersionPattern  = regexp.MustCompile("`(\\d\\.\\d\\.\\d)-")
	webRevisionPattern = regexp.MustCompile(`REACT_APP_REVISION:"([a-f0-9]{8})`)
)

// VersionInfo is what clients need to impersonate the official app: the
// store version and the web frontend's version-revision pair.
type VersionInfo struct {
	Version    string `json:"version"`
	WebVersion string `json:"web_version"`
}

// VersionService answers the version probe clients make before submitting.
// Results are cached; the upstream pages change at most a few times a month.
type VersionService struct {
	Resources *ResourceService

	mu        sync.Mutex
	cached    *VersionInfo
	fetchedAt time.Time
}

func NewVersionService(resources *ResourceService) *VersionService {
	return &VersionService{Resources: resources}
}

func (s *VersionService) webVersionHash() string {
	page, err := s.Resources.getText(gameWebBaseURL + "/")
	if err != nil {
		return defaultWebHash
	}
	if m := webHashPattern.FindStringSubmatch(page); m != nil {
		return m[1]
	}
	return defaultWebHash
}

func (s *VersionService) webRevision(hash string) string {
	url := fmt.Sprintf("%s/static/js/main.%s.js", gameWebBaseURL, hash)
	page, err := s.Resources.getText(url)
	version, revision := defaultWebVersion, defaultWebHash
	if err == nil {
		if m := webVersionPattern.FindStringSubmatch(page); m != nil {
			version = m[1]
		}
		if m := webRevisionPattern.FindStringSubmatch(page); m != nil {
			revision = m[1]
		}
	}
	return fmt.Sprintf("%s-%s", version, revision)
}

func (s *VersionService) appVersion() (string, error) {
	var lookup struct {
		Results []struct {
			Version string `json:"version"`
		} `json:"results"`
	}
	if err := s.Resources.getJSON(appStoreLookupURL, &lookup); err != nil {
		return "", err
	}
	if len(lookup.Results) == 0 {
		return "", fmt.Errorf("%w: empty store lookup", ErrUpstreamUnavailable)
	}
	return lookup.Results[0].Version, nil
}

func (s *VersionService) fetch() (*VersionInfo, error) {
	appVersion := os.Getenv("APP_VERSION")
	if appVersion == "" {
		v, err := s.appVersion()
		if err != nil {
			return nil, err
		}
		appVersion = v
	}
	return &VersionInfo{
		Version:    appVersion,
		WebVersion: s.webRevision(s.webVersionHash()),
	}, nil
}

// GetVersion serves the cached version pair, refreshing it when stale.
func (s *VersionService) GetVersion(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < versionCacheTTL {
		return c.JSON(s.cached)
	}

	info, err := s.fetch()
	if err != nil {
		log.Printf("❌ Version fetch failed: %v", err)
		if s.cached != nil {
			return c.JSON(s.cached)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "version upstream unavailable"})
	}
	s.cached = info
	s.fetchedAt = time.Now()
	return c.JSON(info)
}
