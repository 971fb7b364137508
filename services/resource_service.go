package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"

	"coop-results-system/dto"
	"coop-results-system/utils"
)

// ErrUpstreamUnavailable means a reference-data source could not be reached.
var ErrUpstreamUnavailable = errors.New("reference data upstream unavailable")

const (
	leannyBaseURL        = "https://leanny.github.io/splat3"
	splatnetAssetBaseURL = "https://splatoon3.ink/assets/splatnet/v2"
)

// splatnet asset pages to scrape. The stage_img page feeds the special_img
// bundle field; upstream has always filed it there and clients rely on it.
var assetLinks = []struct {
	link  string
	field string
}{
	{"weapon_illust", "weapon_illust"},
	{"ui_img", "ui_img"},
	{"special_img", "special_img"},
	{"stage_img", "special_img"},
}

var assetHashPattern = regexp.MustCompile(`([\w\d]{64}_0\.png)`)

// ResourceService serves the static reference data the clients need to
// render results, and owns the weapon reverse-lookup table the normalizer
// resolves asset URLs with.
type ResourceService struct {
	HTTPClient     *http.Client
	WeaponTableURL string

	mu      sync.RWMutex
	weapons dto.WeaponTable
}

func NewResourceService() *ResourceService {
	tableURL := os.Getenv("WEAPON_TABLE_URL")
	if tableURL == "" {
		tableURL = leannyBaseURL + "/data/weapon_hash.json"
	}
	return &ResourceService{
		HTTPClient:     utils.HTTPClient,
		WeaponTableURL: tableURL,
		weapons:        dto.WeaponTable{},
	}
}

// Weapons returns the current reverse-lookup table. The table is replaced
// wholesale on refresh, never mutated, so readers need no further locking.
func (s *ResourceService) Weapons() dto.WeaponTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weapons
}

type weaponTableEntry struct {
	ID   int    `json:"id"`
	Hash string `json:"hash"`
}

// RefreshWeaponTable re-fetches the hash-to-id reference table. The old
// table stays in place when the fetch fails; a stale table only costs
// unresolved weapons (-999), never ingest failures.
func (s *ResourceService) RefreshWeaponTable() error {
	var entries []weaponTableEntry
	if err := s.getJSON(s.WeaponTableURL, &entries); err != nil {
		return err
	}

	table := make(dto.WeaponTable, len(entries))
	for _, e := range entries {
		table[e.Hash] = e.ID
	}

	s.mu.Lock()
	s.weapons = table
	s.mu.Unlock()

	log.Printf("✅ Weapon table refreshed (%d entries)", len(table))
	return nil
}

func (s *ResourceService) getJSON(url string, out any) error {
	resp, err := s.HTTPClient.Get(url)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUpstreamUnavailable, url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, url, err)
	}
	return nil
}

func (s *ResourceService) getText(url string) (string, error) {
	resp, err := s.HTTPClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", ErrUpstreamUnavailable, url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, url, err)
	}
	return string(body), nil
}

// appVersion reads the newest game data version from the reference mirror.
func (s *ResourceService) appVersion() (int, error) {
	var versions []string
	if err := s.getJSON(leannyBaseURL+"/versions.json", &versions); err != nil {
		return 0, err
	}
	numeric := make([]int, 0, len(versions))
	for _, v := range versions {
		if n, err := strconv.Atoi(v); err == nil {
			numeric = append(numeric, n)
		}
	}
	if len(numeric) == 0 {
		return 0, fmt.Errorf("%w: no parsable versions", ErrUpstreamUnavailable)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(numeric)))
	return numeric[0], nil
}

func scaleImages() []string {
	return []string{
		leannyBaseURL + "/images/coop/UrocoIcon_00.png",
		leannyBaseURL + "/images/coop/UrocoIcon_01.png",
		leannyBaseURL + "/images/coop/UrocoIcon_02.png",
	}
}

func (s *ResourceService) coopEnemyImages(version int) ([]string, error) {
	var enemies []struct {
		Type string `json:"Type"`
	}
	url := fmt.Sprintf("%s/data/mush/%d/CoopEnemyInfo.json", leannyBaseURL, version)
	if err := s.getJSON(url, &enemies); err != nil {
		return nil, err
	}
	urls := make([]string, len(enemies))
	for i, e := range enemies {
		urls[i] = fmt.Sprintf("%s/images/coopEnemy/%s.png", leannyBaseURL, e.Type)
	}
	return urls, nil
}

// stageBanners derives banner and icon URLs from the stage name table of the
// localization file.
func (s *ResourceService) stageBanners() (banners, icons []string, err error) {
	var doc map[string]json.RawMessage
	if err = s.getJSON(leannyBaseURL+"/data/language/JPja.json", &doc); err != nil {
		return nil, nil, err
	}
	var stages map[string]string
	if err = json.Unmarshal(doc["CommonMsg/Coop/CoopStageName"], &stages); err != nil {
		return nil, nil, fmt.Errorf("%w: stage name table: %v", ErrUpstreamUnavailable, err)
	}

	for stage := range stages {
		var suffix string
		switch {
		case strings.Contains(stage, "Shake"):
			suffix = fmt.Sprintf("Cop_%s.png", stage)
		case stage == "Unknown":
			suffix = fmt.Sprintf("%s.png", stage)
		default:
			suffix = fmt.Sprintf("Vss_%s.png", stage)
		}
		banner := fmt.Sprintf("%s/images/stageBanner/%s", leannyBaseURL, suffix)
		banners = append(banners, banner)
		icons = append(icons, strings.Replace(banner, "Banner", "L", 1))
	}
	sort.Strings(banners)
	sort.Strings(icons)
	return banners, icons, nil
}

func (s *ResourceService) weaponIllustrations(version int) ([]string, error) {
	var weapons []struct {
		ID    int    `json:"Id"`
		Label string `json:"Label"`
		RowID string `json:"__RowId"`
	}
	url := fmt.Sprintf("%s/data/mush/%d/WeaponInfoMain.json", leannyBaseURL, version)
	if err := s.getJSON(url, &weapons); err != nil {
		return nil, err
	}
	var urls []string
	for _, w := range weapons {
		if !strings.Contains(w.RowID, "Bear") {
			continue
		}
		rowID := strings.Replace(w.RowID, "_Coop", "", 1)
		urls = append(urls, fmt.Sprintf("%s/images/weapon_flat/Path_Wst_%s.png", leannyBaseURL, rowID))
	}
	return urls, nil
}

// scrapeAssets lists the image hashes published on one splatnet asset page.
func (s *ResourceService) scrapeAssets(link string) ([]string, error) {
	page, err := s.getText(splatnetAssetBaseURL + "/" + link)
	if err != nil {
		return nil, err
	}
	matches := assetHashPattern.FindAllString(page, -1)
	urls := make([]string, len(matches))
	for i, m := range matches {
		urls[i] = fmt.Sprintf("%s/%s/%s", splatnetAssetBaseURL, link, m)
	}
	return urls, nil
}

// buildBundle assembles the full asset-URL bundle.
func (s *ResourceService) buildBundle() (fiber.Map, error) {
	version, err := s.appVersion()
	if err != nil {
		return nil, err
	}
	enemies, err := s.coopEnemyImages(version)
	if err != nil {
		return nil, err
	}
	banners, icons, err := s.stageBanners()
	if err != nil {
		return nil, err
	}
	illust, err := s.weaponIllustrations(version)
	if err != nil {
		return nil, err
	}

	bundle := fiber.Map{
		"scale_img":      scaleImages(),
		"coop_enemy_img": enemies,
		"stage_img":      fiber.Map{"banner": banners, "icon": icons},
		"weapon_illust":  illust,
	}
	for _, a := range assetLinks {
		urls, err := s.scrapeAssets(a.link)
		if err != nil {
			return nil, err
		}
		if existing, ok := bundle[a.field].([]string); ok {
			bundle[a.field] = append(existing, urls...)
		} else {
			bundle[a.field] = urls
		}
	}
	return bundle, nil
}

// GetResources returns every asset URL a client needs to render results.
func (s *ResourceService) GetResources(c *fiber.Ctx) error {
	bundle, err := s.buildBundle()
	if err != nil {
		log.Printf("❌ Resource bundle build failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "reference data unavailable"})
	}
	return c.JSON(bundle)
}

// MirrorAssets copies the scraped splatnet assets into R2 so clients can
// fetch them from the CDN instead of hammering the upstream mirror.
func (s *ResourceService) MirrorAssets(ctx context.Context) (int, error) {
	mirrored := 0
	for _, a := range assetLinks {
		urls, err := s.scrapeAssets(a.link)
		if err != nil {
			return mirrored, err
		}
		for _, u := range urls {
			select {
			case <-ctx.Done():
				return mirrored, ctx.Err()
			default:
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				continue
			}
			resp, err := s.HTTPClient.Do(req)
			if err != nil {
				log.Printf("⚠️ Asset download failed: %s: %v", u, err)
				continue
			}
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil || resp.StatusCode != http.StatusOK {
				continue
			}

			name := path.Base(u)
			key := fmt.Sprintf("assets/%s/%s.png", a.link, slug.Make(strings.TrimSuffix(name, ".png")))
			if _, err := utils.UploadBytesToR2(key, body, "image/png"); err != nil {
				log.Printf("⚠️ Asset mirror failed: %s: %v", key, err)
				continue
			}
			mirrored++
		}
	}
	return mirrored, nil
}
