package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"tunescore/config"
	"tunescore/internal/logger"
)

const (
	catalogTokenURL = "https://accounts.spotify.com/api/token"
	catalogAPIURL   = "https://api.spotify.com/v1"
)

// Catalog response shapes. The core never writes to the catalog; these are
// read-only lookups the UI browses before a rating is submitted.
type CatalogImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type CatalogArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Images     []CatalogImage `json:"images"`
	Genres     []string       `json:"genres"`
	Popularity int            `json:"popularity"`
}

type CatalogAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	TotalTracks int            `json:"total_tracks"`
	Images      []CatalogImage `json:"images"`
	AlbumType   string         `json:"album_type"`
	Artists     []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
}

type CatalogTrack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TrackNumber int    `json:"track_number"`
	DurationMS  int    `json:"duration_ms"`
	Artists     []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
}

type catalogTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// CatalogService wraps the third-party catalog REST API using the
// client-credentials flow. The bearer token is cached until shortly before
// expiry.
type CatalogService struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	log          logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewCatalogService(config config.Config) *CatalogService {
	return &CatalogService{
		clientID:     config.SpotifyClientID,
		clientSecret: config.SpotifyClientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		log:          logger.New("catalogService"),
	}
}

func (s *CatalogService) getAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	log := s.log.Function("getAccessToken")

	auth := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		catalogTokenURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return "", log.Err("failed to build token request", err)
	}

	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", log.Err("failed to request catalog token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", log.Err("failed to read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", log.Error("catalog token request rejected", "status", resp.StatusCode, "body", string(body))
	}

	var tokenResp catalogTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", log.Err("failed to decode token response", err)
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)

	return s.accessToken, nil
}

func (s *CatalogService) get(ctx context.Context, endpoint string, result any) error {
	log := s.log.Function("get")

	token, err := s.getAccessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, catalogAPIURL+endpoint, nil)
	if err != nil {
		return log.Err("failed to build catalog request", err, "endpoint", endpoint)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return log.Err("catalog request failed", err, "endpoint", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked early; drop it so the next call refreshes
		s.mu.Lock()
		s.accessToken = ""
		s.mu.Unlock()
		return log.Error("catalog rejected token", "endpoint", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return log.Error(
			"catalog request rejected",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"body", string(body),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return log.Err("failed to decode catalog response", err, "endpoint", endpoint)
	}

	return nil
}

func (s *CatalogService) SearchArtists(ctx context.Context, query string, limit int) ([]CatalogArtist, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var result struct {
		Artists struct {
			Items []CatalogArtist `json:"items"`
		} `json:"artists"`
	}

	endpoint := fmt.Sprintf("/search?type=artist&limit=%d&q=%s", limit, url.QueryEscape(query))
	if err := s.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Artists.Items, nil
}

func (s *CatalogService) GetArtist(ctx context.Context, artistID string) (*CatalogArtist, error) {
	var artist CatalogArtist
	if err := s.get(ctx, "/artists/"+url.PathEscape(artistID), &artist); err != nil {
		return nil, err
	}

	return &artist, nil
}

func (s *CatalogService) GetArtistAlbums(ctx context.Context, artistID string) ([]CatalogAlbum, error) {
	var result struct {
		Items []CatalogAlbum `json:"items"`
	}

	endpoint := fmt.Sprintf("/artists/%s/albums?include_groups=album&limit=50", url.PathEscape(artistID))
	if err := s.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Items, nil
}

func (s *CatalogService) GetAlbum(ctx context.Context, albumID string) (*CatalogAlbum, error) {
	var album CatalogAlbum
	if err := s.get(ctx, "/albums/"+url.PathEscape(albumID), &album); err != nil {
		return nil, err
	}

	return &album, nil
}

func (s *CatalogService) GetAlbumTracks(ctx context.Context, albumID string) ([]CatalogTrack, error) {
	var result struct {
		Items []CatalogTrack `json:"items"`
	}

	endpoint := fmt.Sprintf("/albums/%s/tracks?limit=50", url.PathEscape(albumID))
	if err := s.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Items, nil
}

func (s *CatalogService) GetTrack(ctx context.Context, trackID string) (*CatalogTrack, error) {
	var track CatalogTrack
	if err := s.get(ctx, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		return nil, err
	}

	return &track, nil
}
