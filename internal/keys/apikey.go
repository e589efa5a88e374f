package keys

import (
	"slices"
	"time"
)

// Feature names a key can be granted.
const (
	FeatureExplain = "explain"
	FeatureChat    = "chat"
	FeatureAnalyze = "analyze"
)

// DefaultFeatures is granted when an issue request names none.
var DefaultFeatures = []string{FeatureExplain, FeatureChat, FeatureAnalyze}

// TokenPrefix marks tokens minted by the registry.
const TokenPrefix = "learn_"

// APIKey is a metered credential, optionally bound to one project.
type APIKey struct {
	ID          string      `json:"id"`
	Key         string      `json:"key"`
	ProjectID   string      `json:"projectId,omitempty"`
	ProjectName string      `json:"projectName,omitempty"`
	ProjectURL  string      `json:"projectUrl,omitempty"`
	OwnerID     string      `json:"userId"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Features    []string    `json:"features"`
	RateLimit   int         `json:"rateLimit"`
	Active      bool        `json:"isActive"`
	Usage       Usage       `json:"usage"`
	Metadata    KeyMetadata `json:"metadata"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	LastUsed    *time.Time  `json:"lastUsed"`
}

// Usage holds the counters mutated by every billed request.
type Usage struct {
	TotalRequests       int64     `json:"totalRequests"`
	RequestsThisHour    int64     `json:"requestsThisHour"`
	LastHourReset       time.Time `json:"lastHourReset"`
	ExplanationRequests int64     `json:"explanationRequests"`
	ChatRequests        int64     `json:"chatRequests"`
	AnalyzeRequests     int64     `json:"analyzeRequests"`
	UnknownRequests     int64     `json:"unknownRequests"`
}

// KeyMetadata carries access scoping for a key.
type KeyMetadata struct {
	AllowedDomains []string `json:"allowedDomains"`
	DataNamespace  string   `json:"dataNamespace,omitempty"`
}

// UsageRecord is one entry of a key's bounded usage log.
type UsageRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Endpoint  string         `json:"endpoint"`
	Feature   string         `json:"feature"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HasFeature reports whether the key was granted feature.
func (k *APIKey) HasFeature(feature string) bool {
	return slices.Contains(k.Features, feature)
}

// AllowsOrigin reports whether origin passes the key's domain allow-list.
func (k *APIKey) AllowsOrigin(origin string) bool {
	return domainAllowed(k.Metadata.AllowedDomains, origin)
}

// Remaining is the number of requests left in the current hour window.
func (k *APIKey) Remaining() int64 {
	return max(0, int64(k.RateLimit)-k.Usage.RequestsThisHour)
}

// WindowResetsAt is when the current hour window ends.
func (k *APIKey) WindowResetsAt() time.Time {
	return k.Usage.LastHourReset.Add(rateWindow)
}

// Clone returns a deep copy of the key.
func (k *APIKey) Clone() *APIKey {
	c := *k
	c.Features = slices.Clone(k.Features)
	c.Metadata.AllowedDomains = slices.Clone(k.Metadata.AllowedDomains)
	if k.LastUsed != nil {
		t := *k.LastUsed
		c.LastUsed = &t
	}
	return &c
}

// Masked returns a copy whose token is reduced to a recognizable prefix and suffix.
func (k *APIKey) Masked() *APIKey {
	c := k.Clone()
	c.Key = MaskToken(k.Key)
	return c
}

// MaskToken keeps the first 12 and last 4 characters of a token.
func MaskToken(token string) string {
	if len(token) <= 16 {
		return token
	}
	return token[:12] + "..." + token[len(token)-4:]
}

// FeatureForEndpoint buckets an endpoint name into a usage feature.
func FeatureForEndpoint(endpoint string) string {
	switch {
	case containsFold(endpoint, FeatureExplain):
		return FeatureExplain
	case containsFold(endpoint, FeatureChat):
		return FeatureChat
	case containsFold(endpoint, FeatureAnalyze):
		return FeatureAnalyze
	default:
		return "unknown"
	}
}

func (u *Usage) count(feature string) {
	u.TotalRequests++
	switch feature {
	case FeatureExplain:
		u.ExplanationRequests++
	case FeatureChat:
		u.ChatRequests++
	case FeatureAnalyze:
		u.AnalyzeRequests++
	default:
		u.UnknownRequests++
	}
}

// IssueParams describes a key to mint.
type IssueParams struct {
	OwnerID        string
	ProjectID      string
	ProjectName    string
	ProjectURL     string
	Name           string
	Description    string
	Features       []string
	RateLimit      int
	AllowedDomains []string
}

// Patch lists the mutable fields of a key. Nil fields are left unchanged.
type Patch struct {
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Features       *[]string `json:"features,omitempty"`
	RateLimit      *int      `json:"rateLimit,omitempty"`
	Active         *bool     `json:"isActive,omitempty"`
	AllowedDomains *[]string `json:"allowedDomains,omitempty"`
}

// Details is a key together with its most recent usage.
type Details struct {
	Key         *APIKey       `json:"key"`
	RecentUsage []UsageRecord `json:"recentUsage"`
}

// GlobalStats aggregates counters across every key.
type GlobalStats struct {
	TotalKeys                     int   `json:"totalKeys"`
	ActiveKeys                    int   `json:"activeKeys"`
	TotalProjects                 int   `json:"totalProjects"`
	TotalRequests                 int64 `json:"totalRequests"`
	TotalExplanations             int64 `json:"totalExplanations"`
	AverageRequestsPerKey         int64 `json:"averageRequestsPerKey"`
	AverageExplanationsPerProject int64 `json:"averageExplanationsPerProject"`
}
