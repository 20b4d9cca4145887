package stores

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind selects the fetcher implementation that serves a store.
type Kind string

const (
	// KindVtex is the public VTEX catalog search API most pharmacy chains expose.
	KindVtex Kind = "vtex"
	// KindRaiaDrogasil is the RD group's search gateway (Drogasil, Droga Raia).
	KindRaiaDrogasil Kind = "raiadrogasil"
	// KindHtml scrapes a storefront search page with CSS selectors.
	KindHtml Kind = "html"
)

const (
	defaultLimit          = 20
	defaultTimeoutSeconds = 10
	defaultUserAgent      = "Mozilla/5.0"
	defaultRDApiKey       = "rd-site"
)

// Selectors are the CSS selectors a KindHtml store is scraped with. Every selector other
// than Item is evaluated relative to the item, an empty selector means the item itself.
type Selectors struct {
	Item  string `json:"item"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Link  string `json:"link"`
	Image string `json:"image"`
}

// Store is the metadata of one pharmacy, as found in config.json5.
type Store struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Domain is the storefront host of a vtex store, ex. www.paguemenos.com.br.
	Domain string `json:"domain"`
	// BaseUrl overrides the api origin, it is required for raiadrogasil.
	BaseUrl string `json:"base_url"`
	// SiteUrl is prefixed to relative product links.
	SiteUrl string `json:"site_url"`
	Brand   string `json:"brand"`
	ApiKey  string `json:"api_key"`

	// SearchUrl is the search page of a html store, {query} is replaced with the search term.
	SearchUrl string    `json:"search_url"`
	Selectors Selectors `json:"selectors"`

	Limit            int     `json:"limit"`
	TimeoutSeconds   int     `json:"timeout_seconds"`
	RateLimit        float64 `json:"rate_limit"`
	CloudflareBypass bool    `json:"cloudflare_bypass"`
	UserAgent        string  `json:"user_agent"`
	Disabled         bool    `json:"disabled"`
}

func (s Store) limit() int {
	if s.Limit <= 0 {
		return defaultLimit
	}
	return s.Limit
}

func (s Store) timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return time.Second * defaultTimeoutSeconds
	}
	return time.Second * time.Duration(s.TimeoutSeconds)
}

func (s Store) userAgent() string {
	if s.UserAgent == "" {
		return defaultUserAgent
	}
	return s.UserAgent
}

func (s Store) apiKey() string {
	if s.ApiKey == "" {
		return defaultRDApiKey
	}
	return s.ApiKey
}

func (s Store) origin() string {
	if s.BaseUrl != "" {
		return strings.TrimRight(s.BaseUrl, "/")
	}
	return fmt.Sprintf("https://%s", s.Domain)
}

func validUrl(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// Validate checks that the fields the store's kind depends on are present.
func (s Store) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("store has no name")
	}

	switch s.Kind {
	case KindVtex:
		if s.Domain == "" && s.BaseUrl == "" {
			return fmt.Errorf("store %s: vtex stores need a domain", s.Name)
		}
		if s.BaseUrl != "" && !validUrl(s.BaseUrl) {
			return fmt.Errorf("store %s: invalid base_url %q", s.Name, s.BaseUrl)
		}
	case KindRaiaDrogasil:
		if !validUrl(s.BaseUrl) {
			return fmt.Errorf("store %s: invalid base_url %q", s.Name, s.BaseUrl)
		}
		if s.Brand == "" {
			return fmt.Errorf("store %s: raiadrogasil stores need a brand", s.Name)
		}
		if !validUrl(s.SiteUrl) {
			return fmt.Errorf("store %s: invalid site_url %q", s.Name, s.SiteUrl)
		}
	case KindHtml:
		if !validUrl(s.SearchUrl) || !strings.Contains(s.SearchUrl, "{query}") {
			return fmt.Errorf("store %s: search_url must be an absolute url containing {query}", s.Name)
		}
		if s.Selectors.Item == "" || s.Selectors.Price == "" {
			return fmt.Errorf("store %s: html stores need item and price selectors", s.Name)
		}
	default:
		return fmt.Errorf("store %s: unknown kind %q", s.Name, s.Kind)
	}

	if s.RateLimit < 0 {
		return fmt.Errorf("store %s: rate_limit cannot be negative", s.Name)
	}
	return nil
}

// DefaultStores are the pharmacies searched when no configuration says otherwise.
func DefaultStores() []Store {
	return []Store{
		{
			Name:   "Extrafarma",
			Kind:   KindVtex,
			Domain: "www.extrafarma.com.br",
		},
		{
			Name:   "Pague Menos",
			Kind:   KindVtex,
			Domain: "www.paguemenos.com.br",
		},
		{
			Name:   "Globo",
			Kind:   KindVtex,
			Domain: "www.drogariasglobo.com.br",
		},
		{
			Name:    "Drogasil",
			Kind:    KindRaiaDrogasil,
			BaseUrl: "https://api-gateway-prod.raiadrogasil.com.br",
			SiteUrl: "https://www.drogasil.com.br",
			Brand:   "drogasil",
			ApiKey:  defaultRDApiKey,
		},
	}
}
